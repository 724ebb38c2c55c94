package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"maintcore/internal/infra/persistence/kv"
	"maintcore/internal/infra/persistence/relational"
	"maintcore/pkg/config"
	"maintcore/pkg/domain"
)

// OpenBackend builds the backend named by cfg.Driver. Selection reads
// configuration only.
func OpenBackend(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (domain.Backend, error) {
	switch cfg.Driver {
	case config.StorageKV:
		return kv.Open(ctx, cfg.KV, log)
	case config.StorageRelational, "":
		return relational.Open(ctx, cfg.Relational, log)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Open selects the configured backend and wraps it in a Gateway.
func Open(ctx context.Context, cfg config.StorageConfig, log *zap.Logger, opts ...Option) (*Gateway, error) {
	backend, err := OpenBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return New(backend, append([]Option{WithLogger(log)}, opts...)...), nil
}
