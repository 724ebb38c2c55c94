// Package kvstore defines the byte-level key/value storage contract that the
// local key/value backend adapter persists its collections into.
package kvstore

import (
	"context"
	"errors"
)

// Driver identifies a concrete key/value storage implementation.
type Driver string

const (
	// DriverMemory keeps values in process memory (tests, ephemeral sessions).
	DriverMemory Driver = "memory"
	// DriverFilesystem stores one file per key under a root directory.
	DriverFilesystem Driver = "fs"
	// DriverS3 stores one object per key in an S3 / MinIO bucket.
	DriverS3 Driver = "s3"
	// DriverRedis stores one string value per key in redis.
	DriverRedis Driver = "redis"
)

// Store is a flat key/value store. Values are opaque bytes and every Set
// replaces the whole value. Implementations are safe for concurrent use.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Incr increments the integer counter stored at key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)
	Driver() Driver
	Close() error
}

// ErrNotFound is returned by Get when the key holds no value.
var ErrNotFound = errors.New("kvstore: key not found")
