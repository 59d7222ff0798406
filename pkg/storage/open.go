package storage

import (
	"fmt"

	"houseofstone-client/pkg/config"
)

// Open builds the Store selected by cfg.Driver.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemoryStore(), nil
	case "file", "":
		return NewFileStore(cfg.Path, cfg.EncryptionKey)
	case "redis":
		return NewRedisStore(cfg.Redis)
	case "mongo":
		return NewMongoStore(cfg.Mongo)
	case "sql":
		return NewSQLStore(cfg.SQL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
