package bridge

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Binding is the parameter binding style tried first for named parameter sets.
type Binding string

const (
	// BindNamed binds named parameter sets as sql.Named values and falls back
	// to positional rewriting if the driver rejects them.
	BindNamed Binding = "named"
	// BindPositional always rewrites named parameters into positional ones.
	BindPositional Binding = "positional"
)

// RewriteNamed replaces :name and @name placeholders outside quoted text
// with positional placeholders in format, returning the parameter values in
// placeholder order. Postgres "::" casts are left untouched.
func RewriteNamed(query string, named map[string]any, format sq.PlaceholderFormat) (string, []any, error) {
	var b strings.Builder
	var args []any
	runes := []rune(query)
	var quote rune
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if quote != 0 {
			b.WriteRune(r)
			if r == quote {
				quote = 0
			}
			continue
		}
		switch {
		case r == '\'' || r == '"':
			quote = r
			b.WriteRune(r)
		case r == ':' && i+1 < len(runes) && runes[i+1] == ':':
			b.WriteString("::")
			i++
		case (r == ':' || r == '@') && i+1 < len(runes) && isIdentStart(runes[i+1]):
			j := i + 1
			for j < len(runes) && isIdentPart(runes[j]) {
				j++
			}
			name := string(runes[i+1 : j])
			v, ok := named[name]
			if !ok {
				return "", nil, fmt.Errorf("missing named parameter %q", name)
			}
			b.WriteByte('?')
			args = append(args, v)
			i = j - 1
		default:
			b.WriteRune(r)
		}
	}
	out, err := format.ReplacePlaceholders(b.String())
	if err != nil {
		return "", nil, err
	}
	return out, args, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}
