package bridge

import (
	"encoding/json"
	"reflect"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
)

// TimeLayout is the ISO-8601 text form bound for time values.
const TimeLayout = time.RFC3339Nano

// Sanitize converts a parameter into a value every relational driver can
// bind: nil and nil pointers become NULL, booleans become 0/1, times become
// ISO-8601 text, and composite values become their JSON text.
func Sanitize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case time.Time:
		return x.UTC().Format(TimeLayout)
	case *time.Time:
		if x == nil {
			return nil
		}
		return x.UTC().Format(TimeLayout)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case json.RawMessage:
		return string(x)
	case string, int64, float64, []byte:
		return x
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return Sanitize(rv.Elem().Interface())
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return Sanitize(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		if rv.Kind() == reflect.Map && rv.IsNil() {
			return nil
		}
		data, err := gojson.Marshal(v)
		if err != nil {
			return strconv.Quote(rv.String())
		}
		return string(data)
	default:
		return rv.String()
	}
}

// SanitizeArgs sanitizes a positional parameter list.
func SanitizeArgs(args []any) []any {
	if args == nil {
		return nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = Sanitize(a)
	}
	return out
}

// SanitizeNamed sanitizes a named parameter set.
func SanitizeNamed(named map[string]any) map[string]any {
	if named == nil {
		return nil
	}
	out := make(map[string]any, len(named))
	for k, v := range named {
		out[k] = Sanitize(v)
	}
	return out
}
