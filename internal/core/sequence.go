package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"maintcore/internal/gateway"
	"maintcore/pkg/domain"
)

// Sequencer hands out the running numbers behind generated identifiers.
type Sequencer interface {
	Next(ctx context.Context, name string) (int64, error)
	// Durable reports whether values are reserved durably, so a value is
	// never handed out twice.
	Durable() bool
}

// CounterSequencer draws values from the backend's durable counters.
type CounterSequencer struct {
	gw *gateway.Gateway
}

// NewCounterSequencer returns a sequencer over gw.
func NewCounterSequencer(gw *gateway.Gateway) CounterSequencer { return CounterSequencer{gw: gw} }

func (c CounterSequencer) Next(ctx context.Context, name string) (int64, error) {
	return c.gw.NextSequence(ctx, name)
}

func (CounterSequencer) Durable() bool { return true }

// LengthSequencer derives values from the current size of the entity set
// in the store, plus one. Alerts use the highest id plus one. Two creations
// racing between the read and the commit receive the same value.
type LengthSequencer struct {
	store *Store
}

// NewLengthSequencer returns a sequencer over store.
func NewLengthSequencer(store *Store) LengthSequencer { return LengthSequencer{store: store} }

func (l LengthSequencer) Next(_ context.Context, name string) (int64, error) {
	if strings.HasPrefix(name, orderNumberSequence) {
		return int64(l.store.Len(domain.EntityWorkOrder)) + 1, nil
	}
	entity := domain.EntityType(name)
	if entity == domain.EntityAlert {
		var highest int64
		for _, a := range l.store.Alerts() {
			if a.ID > highest {
				highest = a.ID
			}
		}
		return highest + 1, nil
	}
	return int64(l.store.Len(entity)) + 1, nil
}

func (LengthSequencer) Durable() bool { return false }

const orderNumberSequence = "work_order_number:"

var idPrefixes = map[domain.EntityType]string{
	domain.EntityEquipment:       "EQ",
	domain.EntityMaintenanceTask: "MNT",
	domain.EntityWorkOrder:       "OT",
	domain.EntityCost:            "CST",
	domain.EntityCompanyArea:     "AREA",
	domain.EntityTechnician:      "TEC",
}

// maxSkips bounds how many occupied values a durable sequencer may skip.
const maxSkips = 1000

// IDGenerator formats identifiers from a Sequencer.
type IDGenerator struct {
	seq   Sequencer
	store *Store
}

// NewIDGenerator returns a generator. Values already present in store are
// skipped when seq is durable.
func NewIDGenerator(seq Sequencer, store *Store) *IDGenerator {
	return &IDGenerator{seq: seq, store: store}
}

// FormatID renders {prefix}-{n} zero padded to three digits.
func FormatID(prefix string, n int64) string { return fmt.Sprintf("%s-%03d", prefix, n) }

// FormatOrderNumber renders {year}-{n} zero padded to three digits.
func FormatOrderNumber(year int, n int64) string { return fmt.Sprintf("%d-%03d", year, n) }

// NextID returns a new identifier for entity.
func (g *IDGenerator) NextID(ctx context.Context, entity domain.EntityType) (string, error) {
	prefix, ok := idPrefixes[entity]
	if !ok {
		return "", fmt.Errorf("no id prefix for %s", entity)
	}
	return g.next(ctx, string(entity), func(n int64) (string, bool) {
		id := FormatID(prefix, n)
		return id, g.store.has(entity, id)
	})
}

// NextAlertID returns a new numeric alert identifier.
func (g *IDGenerator) NextAlertID(ctx context.Context) (int64, error) {
	id, err := g.next(ctx, string(domain.EntityAlert), func(n int64) (string, bool) {
		key := strconv.FormatInt(n, 10)
		return key, g.store.has(domain.EntityAlert, key)
	})
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(id, 10, 64)
}

// NextOrderNumber returns the next work order number for the year of now.
func (g *IDGenerator) NextOrderNumber(ctx context.Context, now time.Time) (string, error) {
	year := now.Year()
	return g.next(ctx, orderNumberSequence+strconv.Itoa(year), func(n int64) (string, bool) {
		number := FormatOrderNumber(year, n)
		return number, g.orderNumberTaken(number)
	})
}

func (g *IDGenerator) orderNumberTaken(number string) bool {
	for _, o := range g.store.WorkOrders() {
		if o.Number == number {
			return true
		}
	}
	return false
}

func (g *IDGenerator) next(ctx context.Context, name string, format func(int64) (string, bool)) (string, error) {
	for range maxSkips {
		n, err := g.seq.Next(ctx, name)
		if err != nil {
			return "", err
		}
		id, taken := format(n)
		if !taken || !g.seq.Durable() {
			return id, nil
		}
	}
	return "", fmt.Errorf("sequence %s: no free value after %d attempts", name, maxSkips)
}
