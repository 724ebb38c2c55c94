// Package gateway is the backend-agnostic persistence facade. It owns the
// single backend chosen by the hosting application, tags every backend
// failure as a domain.PersistenceError, and exposes one typed repository
// per entity type.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"maintcore/pkg/domain"
	"maintcore/pkg/logger"
)

// Operation names used in errors, logs, and metrics.
const (
	OpList     = "list"
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpSequence = "sequence"
)

// sequenceCollection labels sequence calls in errors and metrics.
const sequenceCollection domain.Collection = "sequences"

// Gateway wraps the active backend for the lifetime of the process.
type Gateway struct {
	backend domain.Backend
	log     *zap.Logger
	metrics MetricsRecorder
}

// Option customises a Gateway.
type Option func(*Gateway)

// WithLogger sets the gateway logger.
func WithLogger(l *zap.Logger) Option { return func(g *Gateway) { g.log = logger.OrNop(l) } }

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(g *Gateway) {
		if m != nil {
			g.metrics = m
		}
	}
}

// New wraps backend. The backend is fixed for the gateway's lifetime.
func New(backend domain.Backend, opts ...Option) *Gateway {
	g := &Gateway{backend: backend, log: zap.NewNop(), metrics: NoopMetrics{}}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.Named("gateway").With(zap.String("backend", string(backend.Kind())))
	return g
}

// Kind reports the active backend.
func (g *Gateway) Kind() domain.BackendKind { return g.backend.Kind() }

// Close releases the backend.
func (g *Gateway) Close() error { return g.backend.Close() }

// NextSequence returns the next value of the named durable counter.
func (g *Gateway) NextSequence(ctx context.Context, name string) (int64, error) {
	var n int64
	err := g.do(ctx, sequenceCollection, OpSequence, func(ctx context.Context) error {
		var err error
		n, err = g.backend.NextSequence(ctx, name)
		return err
	})
	return n, err
}

func (g *Gateway) list(ctx context.Context, c domain.Collection) ([]json.RawMessage, error) {
	var out []json.RawMessage
	err := g.do(ctx, c, OpList, func(ctx context.Context) error {
		var err error
		out, err = g.backend.List(ctx, c)
		return err
	})
	return out, err
}

func (g *Gateway) create(ctx context.Context, c domain.Collection, record json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	err := g.do(ctx, c, OpCreate, func(ctx context.Context) error {
		var err error
		out, err = g.backend.Create(ctx, c, record)
		return err
	})
	return out, err
}

func (g *Gateway) update(ctx context.Context, c domain.Collection, id string, patch domain.Patch) (json.RawMessage, error) {
	var out json.RawMessage
	err := g.do(ctx, c, OpUpdate, func(ctx context.Context) error {
		var err error
		out, err = g.backend.Update(ctx, c, id, patch)
		return err
	})
	return out, err
}

func (g *Gateway) delete(ctx context.Context, c domain.Collection, id string) error {
	return g.do(ctx, c, OpDelete, func(ctx context.Context) error {
		return g.backend.Delete(ctx, c, id)
	})
}

// do runs one backend call. Panics are recovered and every failure comes
// back as a PersistenceError.
func (g *Gateway) do(ctx context.Context, c domain.Collection, op string, fn func(context.Context) error) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
		if err != nil {
			err = domain.PersistenceError{Collection: c, Op: op, Backend: g.backend.Kind(), Err: err}
			g.log.Warn("backend call failed",
				zap.String("collection", string(c)),
				zap.String("op", op),
				zap.Error(err))
		}
		g.metrics.ObserveOperation(g.backend.Kind(), c, op, time.Since(start), err)
	}()
	return fn(ctx)
}
