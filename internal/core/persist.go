package core

import (
	"context"
	"time"

	gojson "github.com/goccy/go-json"

	"maintcore/internal/gateway"
	"maintcore/pkg/domain"
)

// The helpers below are the only paths that mutate the Store. Each one
// writes through the gateway first and commits the backend's stored form
// only after the write succeeds.

func insertRecord[T domain.Keyed](ctx context.Context, s *Store, repo *gateway.Repository[T], sel func(*Store) *table[T], v T) (T, error) {
	stored, err := repo.Create(ctx, v)
	if err != nil {
		return stored, err
	}
	commitPut(s, repo.Entity(), sel, stored)
	return stored, nil
}

func updateRecord[T domain.Keyed](ctx context.Context, s *Store, repo *gateway.Repository[T], sel func(*Store) *table[T], id string, patch domain.Patch) (T, error) {
	stored, err := repo.Update(ctx, id, patch)
	if err != nil {
		return stored, err
	}
	commitPut(s, repo.Entity(), sel, stored)
	return stored, nil
}

func deleteRecord[T domain.Keyed](ctx context.Context, s *Store, repo *gateway.Repository[T], sel func(*Store) *table[T], id string) error {
	if err := repo.Delete(ctx, id); err != nil {
		return err
	}
	commitDelete(s, repo.Entity(), sel, id)
	return nil
}

// stamp renders an optional timestamp as a patch value; nil clears the field.
func stamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// floatOrNil renders an optional number as a patch value.
func floatOrNil(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// document renders v as a JSON object keyed by field name.
func document(v any) (map[string]any, error) {
	raw, err := gojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{}
	if err := gojson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// preview returns current with patch applied, without writing anything, so
// the result can be validated before the backend sees the patch.
func preview[T any](entity domain.EntityType, current T, patch domain.Patch) (T, error) {
	var out T
	doc, err := document(current)
	if err != nil {
		return out, err
	}
	for k, v := range patch {
		doc[k] = v
	}
	raw, err := gojson.Marshal(doc)
	if err != nil {
		return out, domain.ValidationError{Entity: entity, Reason: err.Error()}
	}
	if err := gojson.Unmarshal(raw, &out); err != nil {
		return out, domain.ValidationError{Entity: entity, Reason: err.Error()}
	}
	return out, nil
}

// priorValues returns the values current holds for every key of patch. Keys
// current omits map to nil.
func priorValues(current any, patch domain.Patch) (domain.Patch, error) {
	doc, err := document(current)
	if err != nil {
		return nil, err
	}
	out := make(domain.Patch, len(patch))
	for k := range patch {
		out[k] = doc[k]
	}
	return out, nil
}

// fieldsOf renders v as a patch carrying every field except the id.
func fieldsOf(v any) (domain.Patch, error) {
	doc, err := document(v)
	if err != nil {
		return nil, err
	}
	delete(doc, "id")
	return domain.Patch(doc), nil
}
