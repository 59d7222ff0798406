package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API           APIConfig           `yaml:"api"`
	Storage       StorageConfig       `yaml:"storage"`
	Server        ServerConfig        `yaml:"server"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Connectivity  ConnectivityConfig  `yaml:"connectivity"`
	Log           LogConfig           `yaml:"log"`
}

// APIConfig describes the remote REST backend and the client's request policy.
type APIConfig struct {
	BaseURL              string        `yaml:"base_url" validate:"required,url"`
	Timeout              time.Duration `yaml:"timeout" validate:"gt=0"`
	CacheTTL             time.Duration `yaml:"cache_ttl" validate:"gt=0"`
	CacheMaxEntries      int           `yaml:"cache_max_entries" validate:"gte=0"`
	SlowRequestThreshold time.Duration `yaml:"slow_request_threshold" validate:"gte=0"`
}

type StorageConfig struct {
	Driver        string      `yaml:"driver" validate:"oneof=memory file redis mongo sql"`
	Path          string      `yaml:"path"`
	EncryptionKey string      `yaml:"encryption_key"`
	Redis         RedisConfig `yaml:"redis"`
	Mongo         MongoConfig `yaml:"mongo"`
	SQL           SQLConfig   `yaml:"sql"`
}

type RedisConfig struct {
	Host        string `yaml:"host" validate:"required,hostname|ip"`
	Port        int    `yaml:"port" validate:"required,gt=0,lte=65535"`
	Password    string `yaml:"password"`
	DB          int    `yaml:"db" validate:"gte=0"`
	Prefix      string `yaml:"prefix"`
	TLSEnabled  bool   `yaml:"tls_enabled"`
	TLSCertFile string `yaml:"tls_cert_file"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	DBName     string `yaml:"dbname"`
	Collection string `yaml:"collection"`
}

type SQLConfig struct {
	Driver string `yaml:"driver" validate:"oneof=mysql postgres"`
	DSN    string `yaml:"dsn"`
	Table  string `yaml:"table" validate:"required,max=64"`
}

// ServerConfig controls the loopback bridge exposing the client to UI code.
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port" validate:"gt=0,lte=65535"`
	Token   string `yaml:"token"`
}

type NotificationsConfig struct {
	MaxItems        int           `yaml:"max_items" validate:"gt=0"`
	DefaultDuration time.Duration `yaml:"default_duration" validate:"gt=0"`
}

type ConnectivityConfig struct {
	DedupWindow   time.Duration `yaml:"dedup_window" validate:"gte=0"`
	ProbeURL      string        `yaml:"probe_url" validate:"omitempty,url"`
	ProbeInterval time.Duration `yaml:"probe_interval" validate:"gte=0"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout" validate:"gte=0"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, then applies environment overrides, defaults and validation.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Override with environment variables if set
func applyEnv(cfg *Config) error {
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("API_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid API_TIMEOUT value: %w", err)
		}
		cfg.API.Timeout = d
	}
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("STORAGE_ENCRYPTION_KEY"); v != "" {
		cfg.Storage.EncryptionKey = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Storage.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_PORT value: %w", err)
		}
		cfg.Storage.Redis.Port = port
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB value: %w", err)
		}
		cfg.Storage.Redis.DB = db
	}
	if v := os.Getenv("REDIS_TLS_ENABLED"); v != "" {
		cfg.Storage.Redis.TLSEnabled = v == "true"
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Storage.Mongo.URI = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Storage.Mongo.DBName = v
	}
	if v := os.Getenv("SQL_DRIVER"); v != "" {
		cfg.Storage.SQL.Driver = v
	}
	if v := os.Getenv("SQL_DSN"); v != "" {
		cfg.Storage.SQL.DSN = v
	}
	if v := os.Getenv("BRIDGE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid BRIDGE_PORT value: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("BRIDGE_TOKEN"); v != "" {
		cfg.Server.Token = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	return nil
}

// Set default values
func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://houseofstone-backend1.onrender.com/"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.CacheTTL == 0 {
		cfg.API.CacheTTL = 5 * time.Minute
	}
	if cfg.API.CacheMaxEntries == 0 {
		cfg.API.CacheMaxEntries = 100
	}
	if cfg.API.SlowRequestThreshold == 0 {
		cfg.API.SlowRequestThreshold = 5 * time.Second
	}

	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "file"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data"
	}
	if cfg.Storage.Redis.Host == "" {
		cfg.Storage.Redis.Host = "localhost"
	}
	if cfg.Storage.Redis.Port == 0 {
		cfg.Storage.Redis.Port = 6379
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "hsp:"
	}
	if cfg.Storage.Mongo.DBName == "" {
		cfg.Storage.Mongo.DBName = "houseofstone"
	}
	if cfg.Storage.Mongo.Collection == "" {
		cfg.Storage.Mongo.Collection = "kv_store"
	}
	if cfg.Storage.SQL.Driver == "" {
		cfg.Storage.SQL.Driver = "postgres"
	}
	if cfg.Storage.SQL.Table == "" {
		cfg.Storage.SQL.Table = "kv_store"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8787
	}

	if cfg.Notifications.MaxItems == 0 {
		cfg.Notifications.MaxItems = 5
	}
	if cfg.Notifications.DefaultDuration == 0 {
		cfg.Notifications.DefaultDuration = 5 * time.Second
	}

	if cfg.Connectivity.DedupWindow == 0 {
		cfg.Connectivity.DedupWindow = 10 * time.Second
	}
	if cfg.Connectivity.ProbeInterval == 0 {
		cfg.Connectivity.ProbeInterval = 15 * time.Second
	}
	if cfg.Connectivity.ProbeTimeout == 0 {
		cfg.Connectivity.ProbeTimeout = 5 * time.Second
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

var validate = validator.New()

// Validate checks struct tags plus the cross-field rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch cfg.Storage.Driver {
	case "mongo":
		if cfg.Storage.Mongo.URI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo storage driver")
		}
	case "sql":
		if cfg.Storage.SQL.DSN == "" {
			return fmt.Errorf("SQL_DSN is required for the sql storage driver")
		}
	case "redis":
		r := cfg.Storage.Redis
		if r.TLSEnabled && r.TLSCertFile != "" {
			if _, err := os.Stat(r.TLSCertFile); os.IsNotExist(err) {
				return fmt.Errorf("TLS certificate file does not exist: %s", r.TLSCertFile)
			}
		}
	}
	if cfg.Storage.EncryptionKey != "" && len(cfg.Storage.EncryptionKey) < 16 {
		return fmt.Errorf("STORAGE_ENCRYPTION_KEY must be at least 16 characters")
	}
	return nil
}
