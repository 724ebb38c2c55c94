// Package core holds the maintenance domain logic: the in-memory Entity
// Store, identifier generation, the lifecycle controllers with their effect
// pipeline, the cost aggregator, and derived queries. Storage is reached only
// through the gateway.
package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"maintcore/internal/gateway"
	"maintcore/pkg/config"
	"maintcore/pkg/domain"
	"maintcore/pkg/logger"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

// IDStrategy selects the sequence source behind generated identifiers.
type IDStrategy string

// Supported identifier strategies.
const (
	IDCounter IDStrategy = "counter"
	IDLength  IDStrategy = "length"
)

// DefaultNextMaintenanceMonths is the horizon applied when a task completes.
const DefaultNextMaintenanceMonths = 3

// Option customises a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = logger.OrNop(l) }
}

// WithClock sets the time source.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithCascadePolicy sets how multi-step operations react to a failed step.
func WithCascadePolicy(p CascadePolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithNextMaintenanceMonths sets how far completion pushes the next
// maintenance date of the equipment.
func WithNextMaintenanceMonths(n int) Option {
	return func(s *Service) { s.months = n }
}

// WithIDStrategy selects the sequence source for generated identifiers.
func WithIDStrategy(strategy IDStrategy) Option {
	return func(s *Service) { s.strategy = strategy }
}

// OptionsFromConfig translates lifecycle configuration into options.
func OptionsFromConfig(cfg config.LifecycleConfig) ([]Option, error) {
	policy, err := ParseCascadePolicy(cfg.CascadePolicy)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithCascadePolicy(policy), WithNextMaintenanceMonths(cfg.NextMaintenanceMonths)}
	switch IDStrategy(cfg.IDStrategy) {
	case IDCounter, "":
		opts = append(opts, WithIDStrategy(IDCounter))
	case IDLength:
		opts = append(opts, WithIDStrategy(IDLength))
	default:
		return nil, fmt.Errorf("unknown id strategy %q", cfg.IDStrategy)
	}
	return opts, nil
}

// Service is the entry point of the core. Every mutation writes through the
// gateway and commits to the Store once the backend confirms it.
type Service struct {
	gw       *gateway.Gateway
	store    *Store
	ids      *IDGenerator
	exec     *EffectExecutor
	clock    Clock
	log      *zap.Logger
	policy   CascadePolicy
	months   int
	strategy IDStrategy

	equipment   *gateway.Repository[domain.Equipment]
	tasks       *gateway.Repository[domain.MaintenanceTask]
	orders      *gateway.Repository[domain.WorkOrder]
	alerts      *gateway.Repository[domain.Alert]
	costs       *gateway.Repository[domain.Cost]
	areas       *gateway.Repository[domain.CompanyArea]
	technicians *gateway.Repository[domain.Technician]
	profile     *gateway.Repository[domain.CompanyProfile]
}

// NewService builds a service over gw with an empty Store. Call Load to
// hydrate the Store from the backend.
func NewService(gw *gateway.Gateway, opts ...Option) *Service {
	s := &Service{
		gw:       gw,
		store:    NewStore(),
		clock:    ClockFunc(time.Now),
		log:      zap.NewNop(),
		policy:   CascadeBestEffort,
		months:   DefaultNextMaintenanceMonths,
		strategy: IDCounter,

		equipment:   gateway.For[domain.Equipment](gw, domain.EntityEquipment),
		tasks:       gateway.For[domain.MaintenanceTask](gw, domain.EntityMaintenanceTask),
		orders:      gateway.For[domain.WorkOrder](gw, domain.EntityWorkOrder),
		alerts:      gateway.For[domain.Alert](gw, domain.EntityAlert),
		costs:       gateway.For[domain.Cost](gw, domain.EntityCost),
		areas:       gateway.For[domain.CompanyArea](gw, domain.EntityCompanyArea),
		technicians: gateway.For[domain.Technician](gw, domain.EntityTechnician),
		profile:     gateway.For[domain.CompanyProfile](gw, domain.EntityCompanyProfile),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("core")
	s.exec = NewEffectExecutor(s.policy, s.log.Named("effects"))
	var seq Sequencer = NewCounterSequencer(gw)
	if s.strategy == IDLength {
		seq = NewLengthSequencer(s.store)
	}
	s.ids = NewIDGenerator(seq, s.store)
	return s
}

// Store returns the in-memory entity view.
func (s *Service) Store() *Store { return s.store }

// Policy reports the active cascade policy.
func (s *Service) Policy() CascadePolicy { return s.exec.Policy() }

func (s *Service) now() time.Time { return s.clock.Now().UTC() }

// Load hydrates the Store from the backend. Collections are fetched in
// parallel. On any failure the Store is left as it was.
func (s *Service) Load(ctx context.Context) error {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { snap.equipment, err = s.equipment.List(gctx); return err })
	g.Go(func() (err error) { snap.tasks, err = s.tasks.List(gctx); return err })
	g.Go(func() (err error) { snap.orders, err = s.orders.List(gctx); return err })
	g.Go(func() (err error) { snap.alerts, err = s.alerts.List(gctx); return err })
	g.Go(func() (err error) { snap.costs, err = s.costs.List(gctx); return err })
	g.Go(func() (err error) { snap.areas, err = s.areas.List(gctx); return err })
	g.Go(func() (err error) { snap.technicians, err = s.technicians.List(gctx); return err })
	g.Go(func() (err error) { snap.profile, err = s.profile.List(gctx); return err })
	if err := g.Wait(); err != nil {
		s.log.Error("load failed", zap.Error(err))
		return err
	}
	s.store.replace(snap)
	s.log.Info("store loaded",
		zap.String("backend", string(s.gw.Kind())),
		zap.Int("equipment", len(snap.equipment)),
		zap.Int("tasks", len(snap.tasks)),
		zap.Int("orders", len(snap.orders)),
		zap.Int("alerts", len(snap.alerts)),
		zap.Int("costs", len(snap.costs)))
	return nil
}

// Close releases the backend.
func (s *Service) Close() error { return s.gw.Close() }

func notFound(entity domain.EntityType, id string) error {
	return domain.NotFoundError{Entity: entity, ID: id}
}

// assignID fills a blank id from the generator and rejects a caller-supplied
// id that is already taken.
func (s *Service) assignID(ctx context.Context, entity domain.EntityType, id string) (string, error) {
	if id != "" {
		if s.store.has(entity, id) {
			return "", domain.ValidationError{Entity: entity, Field: "id", Reason: fmt.Sprintf("%q already exists", id)}
		}
		return id, nil
	}
	return s.ids.NextID(ctx, entity)
}
