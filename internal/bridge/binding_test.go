package bridge

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"
)

func TestRewriteNamed(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		named    map[string]any
		format   sq.PlaceholderFormat
		want     string
		wantArgs []any
	}{
		{
			name:     "question marks",
			query:    "DELETE FROM costs WHERE id = :id",
			named:    map[string]any{"id": "CST-001"},
			format:   sq.Question,
			want:     "DELETE FROM costs WHERE id = ?",
			wantArgs: []any{"CST-001"},
		},
		{
			name:     "dollar placeholders in order of appearance",
			query:    "UPDATE t SET a = @a, b = :b WHERE id = :id AND a <> :a",
			named:    map[string]any{"a": 1, "b": 2, "id": "x"},
			format:   sq.Dollar,
			want:     "UPDATE t SET a = $1, b = $2 WHERE id = $3 AND a <> $4",
			wantArgs: []any{1, 2, "x", 1},
		},
		{
			name:     "quoted text and casts untouched",
			query:    "SELECT ':skip', value::text FROM sequences WHERE name = :name",
			named:    map[string]any{"name": "cost"},
			format:   sq.Dollar,
			want:     "SELECT ':skip', value::text FROM sequences WHERE name = $1",
			wantArgs: []any{"cost"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, args, err := RewriteNamed(tc.query, tc.named, tc.format)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
			require.Equal(t, tc.wantArgs, args)
		})
	}
}

func TestRewriteNamedMissingParameter(t *testing.T) {
	_, _, err := RewriteNamed("DELETE FROM costs WHERE id = :id", map[string]any{}, sq.Question)
	require.Error(t, err)
}
