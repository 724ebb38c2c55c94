package relational

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"

	"maintcore/internal/bridge"
	"maintcore/pkg/domain"
)

// decodeDocument parses a JSON document keeping numbers as json.Number.
func decodeDocument(data []byte) (map[string]any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// normalize brings an arbitrary Go value into its JSON shape so named
// string types, pointers, and structs bind like decoded document values.
func normalize(v any) (any, error) {
	switch v.(type) {
	case nil, string, bool, json.Number:
		return v, nil
	}
	data, err := gojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// toParam converts a JSON document value into a bind parameter for a column.
func toParam(kind ColumnKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case KindText:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		}
	case KindInt:
		switch x := v.(type) {
		case json.Number:
			return x.Int64()
		case string:
			return strconv.ParseInt(x, 10, 64)
		}
	case KindReal:
		switch x := v.(type) {
		case json.Number:
			return x.Float64()
		case string:
			return strconv.ParseFloat(x, 64)
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case KindTime:
		if s, ok := v.(string); ok {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return nil, err
			}
			return t, nil
		}
	case KindJSON:
		return v, nil
	}
	return nil, fmt.Errorf("unexpected %T", v)
}

// fromColumn converts a result column value into its JSON document value.
// ok is false for NULL, which is omitted from the document.
func fromColumn(kind ColumnKind, v any) (out any, ok bool, err error) {
	if v == nil {
		return nil, false, nil
	}
	switch kind {
	case KindText, KindTime:
		switch x := v.(type) {
		case string:
			return x, true, nil
		case time.Time:
			return x.UTC().Format(bridge.TimeLayout), true, nil
		}
		return fmt.Sprint(v), true, nil
	case KindInt:
		n, err := asInt(v)
		return n, err == nil, err
	case KindReal:
		f, err := asFloat(v)
		return f, err == nil, err
	case KindBool:
		if b, isBool := v.(bool); isBool {
			return b, true, nil
		}
		n, err := asInt(v)
		return n != 0, err == nil, err
	case KindJSON:
		s, isString := v.(string)
		if !isString {
			return v, true, nil
		}
		if s == "" {
			return nil, false, nil
		}
		if !gojson.Valid([]byte(s)) {
			return s, true, nil
		}
		return json.RawMessage(s), true, nil
	}
	return nil, false, fmt.Errorf("unknown column kind %d", kind)
}

func asInt(v any) (int64, error) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, nil
		}
		f, err := x.Float64()
		return int64(f), err
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("unexpected integer %T", v)
}

func asFloat(v any) (float64, error) {
	switch x := v.(type) {
	case json.Number:
		return x.Float64()
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(x, 64)
	}
	return 0, fmt.Errorf("unexpected number %T", v)
}

// recordFromRow renders a result row as a JSON record. Columns outside the
// table definition, such as the postgres ordering column, are dropped.
func recordFromRow(t *Table, row bridge.Row) (json.RawMessage, error) {
	doc := make(map[string]any, len(t.Columns))
	for _, col := range t.Columns {
		v, present := row[col.Name]
		if !present {
			continue
		}
		out, ok, err := fromColumn(col.Kind, v)
		if err != nil {
			return nil, fmt.Errorf("column %s.%s: %w", t.Collection, col.Name, err)
		}
		if ok {
			doc[col.Name] = out
		}
	}
	data, err := gojson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	return data, nil
}

// keyParam converts a textual id into the key column's bind form.
func keyParam(t *Table, id string) (any, error) {
	if t.KeyKind() != KindInt {
		return id, nil
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, domain.ValidationError{Entity: domain.EntityType(t.Collection), Field: "id", Reason: "must be an integer"}
	}
	return n, nil
}
