package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"houseofstone-client/pkg/config"
	"houseofstone-client/pkg/logger"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
)

var validTable = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

type sqlQueries struct {
	create string
	get    string
	upsert string
	delete string
}

// SQLStore keeps records in a single (k, v, updated_at) table.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	q       sqlQueries
}

// NewSQLStore opens the database, verifies the connection and creates the table.
func NewSQLStore(cfg config.SQLConfig) (*SQLStore, error) {
	dialect := Dialect(cfg.Driver)
	dsn := cfg.DSN
	if dialect == DialectMySQL {
		parsed, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql DSN: %w", err)
		}
		parsed.ParseTime = true
		dsn = parsed.FormatDSN()
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	start := time.Now()
	err = db.PingContext(ctx)
	observe("sql", "ping", start, err)
	if err != nil {
		db.Close()
		logger.Default().Errorf("Failed to ping SQL database: driver=%s, error=%v", dialect, err)
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	s, err := NewSQLStoreFromDB(db, dialect, cfg.Table)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Default().Printf("SQL storage connected successfully: driver=%s, table=%s", dialect, cfg.Table)
	return s, nil
}

// NewSQLStoreFromDB wraps an open database handle without touching the schema.
func NewSQLStoreFromDB(db *sql.DB, dialect Dialect, table string) (*SQLStore, error) {
	if !validTable.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	var q sqlQueries
	switch dialect {
	case DialectMySQL:
		t := "`" + table + "`"
		q = sqlQueries{
			create: "CREATE TABLE IF NOT EXISTS " + t + " (k VARCHAR(191) NOT NULL PRIMARY KEY, v LONGTEXT NOT NULL, updated_at DATETIME NOT NULL)",
			get:    "SELECT v FROM " + t + " WHERE k = ?",
			upsert: "INSERT INTO " + t + " (k, v, updated_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE v = VALUES(v), updated_at = VALUES(updated_at)",
			delete: "DELETE FROM " + t + " WHERE k = ?",
		}
	case DialectPostgres:
		t := pq.QuoteIdentifier(table)
		q = sqlQueries{
			create: "CREATE TABLE IF NOT EXISTS " + t + " (k TEXT PRIMARY KEY, v TEXT NOT NULL, updated_at TIMESTAMPTZ NOT NULL)",
			get:    "SELECT v FROM " + t + " WHERE k = $1",
			upsert: "INSERT INTO " + t + " (k, v, updated_at) VALUES ($1, $2, $3) ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = EXCLUDED.updated_at",
			delete: "DELETE FROM " + t + " WHERE k = $1",
		}
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}
	return &SQLStore{db: db, dialect: dialect, q: q}, nil
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	start := time.Now()
	_, err := s.db.ExecContext(ctx, s.q.create)
	observe("sql", "migrate", start, err)
	if err != nil {
		return fmt.Errorf("failed to create storage table: %w", err)
	}
	return nil
}

func (s *SQLStore) Get(ctx context.Context, key string, dest any) (err error) {
	start := time.Now()
	defer func() { observe("sql", "get", start, err) }()

	var v string
	err = s.db.QueryRowContext(ctx, s.q.get, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return NewStoreError("sql", "get", key, err)
	}
	if err := decode([]byte(v), dest); err != nil {
		return NewStoreError("sql", "get", key, err)
	}
	return nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value any) (err error) {
	start := time.Now()
	defer func() { observe("sql", "set", start, err) }()

	data, err := encode(value)
	if err != nil {
		return NewStoreError("sql", "set", key, err)
	}
	if _, err := s.db.ExecContext(ctx, s.q.upsert, key, string(data), time.Now().UTC()); err != nil {
		return NewStoreError("sql", "set", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) (err error) {
	start := time.Now()
	defer func() { observe("sql", "delete", start, err) }()

	if _, err := s.db.ExecContext(ctx, s.q.delete, key); err != nil {
		return NewStoreError("sql", "delete", key, err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
