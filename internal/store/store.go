// Package store provides durable key to JSON blob storage with pluggable
// backends. Collections are persisted as whole JSON documents under fixed
// keys and rewritten on every mutation.
package store

import (
	"context"
	"errors"
)

// ErrNotFound indicates the key holds no value.
var ErrNotFound = errors.New("store: key not found")

// Store is a raw key/value backend.
type Store interface {
	// Get returns the stored bytes or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites the value under key unconditionally.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by the STORE_DRIVER setting.
const (
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

const probeKey = "everhack_health"

// Probe reports whether s answers reads. A missing key counts as healthy.
func Probe(ctx context.Context, s Store) error {
	if _, err := s.Get(ctx, probeKey); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
