package gateway

import (
	"context"
	"reflect"
	"strings"

	gojson "github.com/goccy/go-json"

	"maintcore/pkg/domain"
)

// Repository is the typed CRUD contract for one entity type.
type Repository[T domain.Keyed] struct {
	gw         *Gateway
	entity     domain.EntityType
	collection domain.Collection
	fields     map[string]struct{}
}

// For returns the repository of entity type T.
func For[T domain.Keyed](gw *Gateway, entity domain.EntityType) *Repository[T] {
	var zero T
	return &Repository[T]{
		gw:         gw,
		entity:     entity,
		collection: domain.CollectionFor(entity),
		fields:     jsonFields(reflect.TypeOf(zero)),
	}
}

// Entity reports the repository's entity type.
func (r *Repository[T]) Entity() domain.EntityType { return r.entity }

// List returns every stored entity in backend order.
func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	records, err := r.gw.list(ctx, r.collection)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(records))
	for _, rec := range records {
		var v T
		if err := gojson.Unmarshal(rec, &v); err != nil {
			return nil, r.decodeFailure(OpList, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Create stores v and returns the stored form.
func (r *Repository[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	record, err := gojson.Marshal(v)
	if err != nil {
		return zero, r.decodeFailure(OpCreate, err)
	}
	stored, err := r.gw.create(ctx, r.collection, record)
	if err != nil {
		return zero, err
	}
	return r.decode(OpCreate, stored)
}

// Update applies patch to the entity with id and returns the stored form.
// Patch keys must be JSON field names of T.
func (r *Repository[T]) Update(ctx context.Context, id string, patch domain.Patch) (T, error) {
	var zero T
	for field := range patch {
		if _, ok := r.fields[field]; !ok {
			return zero, domain.ValidationError{Entity: r.entity, Field: field, Reason: "is not a known field"}
		}
	}
	stored, err := r.gw.update(ctx, r.collection, id, patch)
	if err != nil {
		return zero, err
	}
	return r.decode(OpUpdate, stored)
}

// Delete removes the entity with id.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.gw.delete(ctx, r.collection, id)
}

func (r *Repository[T]) decode(op string, raw []byte) (T, error) {
	var v T
	if err := gojson.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, r.decodeFailure(op, err)
	}
	return v, nil
}

func (r *Repository[T]) decodeFailure(op string, err error) error {
	return domain.PersistenceError{Collection: r.collection, Op: op, Backend: r.gw.Kind(), Err: err}
}

// jsonFields collects the JSON field names of a struct type.
func jsonFields(t reflect.Type) map[string]struct{} {
	fields := map[string]struct{}{}
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return fields
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		fields[name] = struct{}{}
	}
	return fields
}
