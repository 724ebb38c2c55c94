package kv

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"maintcore/internal/infra/kvstore"
	"maintcore/internal/infra/kvstore/fs"
	"maintcore/internal/infra/kvstore/memory"
	"maintcore/internal/infra/kvstore/redis"
	"maintcore/internal/infra/kvstore/s3"
	"maintcore/pkg/config"
)

// OpenStore selects a kvstore.Store implementation from configuration.
func OpenStore(ctx context.Context, cfg config.KVConfig) (kvstore.Store, error) {
	switch kvstore.Driver(cfg.Driver) {
	case kvstore.DriverMemory, "":
		return memory.New(), nil
	case kvstore.DriverFilesystem:
		return fs.New(cfg.FSRoot)
	case kvstore.DriverS3:
		return s3.New(ctx, s3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
	case kvstore.DriverRedis:
		return redis.New(ctx, redis.Config{Address: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	default:
		return nil, fmt.Errorf("unknown kv driver %s", cfg.Driver)
	}
}

// Open builds a key/value backend adapter from configuration.
func Open(ctx context.Context, cfg config.KVConfig, log *zap.Logger) (*Adapter, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(store, WithPrefix(cfg.Prefix), WithLogger(log)), nil
}
