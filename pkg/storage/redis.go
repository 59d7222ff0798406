package storage

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"houseofstone-client/pkg/config"
	"houseofstone-client/pkg/logger"

	"github.com/go-redis/redis/v8"
)

// RedisStore keeps each record as a string value under prefix+key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore dials redis and verifies the connection with a ping.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	var tlsConfig *tls.Config
	if cfg.TLSEnabled {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		if cfg.TLSCertFile != "" {
			cert, err := tls.LoadX509KeyPair(cfg.TLSCertFile, cfg.TLSCertFile)
			if err != nil {
				logger.Default().Errorf("Failed to load TLS certificate: file=%s, error=%v", cfg.TLSCertFile, err)
				return nil, fmt.Errorf("failed to load TLS certificate: %w", err)
			}
			tlsConfig.Certificates = []tls.Certificate{cert}
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		TLSConfig:    tlsConfig,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	_, err := client.Ping(ctx).Result()
	observe("redis", "ping", start, err)
	if err != nil {
		client.Close()
		logger.Default().Errorf("Failed to connect to Redis: addr=%s:%d, error=%v", cfg.Host, cfg.Port, err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Default().Println("Redis storage connected successfully")
	return NewRedisStoreFromClient(client, cfg.Prefix), nil
}

func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (err error) {
	start := time.Now()
	defer func() { observe("redis", "get", start, err) }()

	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return NewStoreError("redis", "get", key, err)
	}
	if err := decode(data, dest); err != nil {
		return NewStoreError("redis", "get", key, err)
	}
	return nil
}

// Set stores the record without expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value any) (err error) {
	start := time.Now()
	defer func() { observe("redis", "set", start, err) }()

	data, err := encode(value)
	if err != nil {
		return NewStoreError("redis", "set", key, err)
	}
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return NewStoreError("redis", "set", key, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { observe("redis", "delete", start, err) }()

	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return NewStoreError("redis", "delete", key, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		logger.Default().Errorf("Error closing Redis: %v", err)
		return err
	}
	logger.Default().Println("Redis connection closed")
	return nil
}
