package bridge

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type state string

func TestSanitize(t *testing.T) {
	when := time.Date(2026, 3, 4, 10, 30, 0, 0, time.FixedZone("CET", 3600))
	var nilTime *time.Time
	var nilSlice []string
	hours := 2.5
	cases := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"true", true, int64(1)},
		{"false", false, int64(0)},
		{"time", when, "2026-03-04T09:30:00Z"},
		{"time pointer", &when, "2026-03-04T09:30:00Z"},
		{"nil time pointer", nilTime, nil},
		{"float pointer", &hours, 2.5},
		{"named string", state("in_progress"), "in_progress"},
		{"int", 42, int64(42)},
		{"uint", uint8(7), int64(7)},
		{"float32", float32(1.5), 1.5},
		{"string slice", []string{"grasa", "rodamiento"}, `["grasa","rodamiento"]`},
		{"nil slice", nilSlice, nil},
		{"map", map[string]int{"a": 1}, `{"a":1}`},
		{"struct", struct {
			A int `json:"a"`
		}{A: 3}, `{"a":3}`},
		{"json integer", json.Number("12"), int64(12)},
		{"json float", json.Number("12.5"), 12.5},
		{"raw json", json.RawMessage(`{"x":1}`), `{"x":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}

func TestSanitizeCollections(t *testing.T) {
	assert.Nil(t, SanitizeArgs(nil))
	assert.Nil(t, SanitizeNamed(nil))
	assert.Equal(t, []any{int64(1), nil}, SanitizeArgs([]any{true, nil}))
	assert.Equal(t, map[string]any{"active": int64(0)}, SanitizeNamed(map[string]any{"active": false}))
}
