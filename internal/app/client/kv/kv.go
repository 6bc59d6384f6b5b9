// Package kv - постоянное key-value хранилище на устройстве для локального режима.
package kv

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
	DriverMemory = "memory"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open открывает хранилище выбранного драйвера
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(path)
	case DriverBadger:
		return NewBadgerStore(path)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown local store driver %q", driver)
	}
}
