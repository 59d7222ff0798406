package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"houseofstone-client/pkg/metrics"
)

// Fixed keys shared with the browser build so exported data stays readable.
const (
	KeyAuth           = "auth"
	KeySavedProps     = "hsp_saved_properties"
	KeyRecentlyViewed = "hsp_recently_viewed"
)

// ErrNotFound is returned by Get when no record exists under the key.
var ErrNotFound = errors.New("storage: key not found")

// Store persists JSON-serializable records under string keys.
// Set replaces the whole record; Delete of an absent key succeeds.
type Store interface {
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type StoreError struct {
	Driver    string
	Operation string
	Key       string
	Err       error
}

func NewStoreError(driver, operation, key string, err error) *StoreError {
	return &StoreError{
		Driver:    driver,
		Operation: operation,
		Key:       key,
		Err:       err,
	}
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("storage %s %s %q failed: %v", e.Driver, e.Operation, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

func decode(data []byte, dest any) error {
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	return nil
}

// observe records the duration of a driver operation and counts failures.
// ErrNotFound is a normal outcome and is not counted.
func observe(driver, operation string, start time.Time, err error) {
	metrics.StorageOperationDuration.WithLabelValues(driver, operation).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.StorageErrorsTotal.WithLabelValues(driver, operation).Inc()
	}
}
