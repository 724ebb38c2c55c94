package bridge

import (
	"fmt"

	"maintcore/pkg/domain"
)

// Dialect is the SQL dialect spoken by the receiving side.
type Dialect string

// Supported dialects.
const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Catalog statement names.
const (
	StmtSequenceNext = "sequence.next"
)

// ListStatement names the catalog statement listing a collection in insertion order.
func ListStatement(c domain.Collection) string { return string(c) + ".list" }

// DeleteStatement names the catalog statement deleting one record by :id.
func DeleteStatement(c domain.Collection) string { return string(c) + ".delete" }

// Catalog returns the named statements the receiving side accepts for
// dialect. Catalog statements use named parameters.
func Catalog(dialect Dialect) map[string]string {
	order := "rowid"
	if dialect == DialectPostgres {
		order = "pos"
	}
	stmts := map[string]string{
		StmtSequenceNext: `INSERT INTO sequences (name, value) VALUES (:name, 1)
ON CONFLICT (name) DO UPDATE SET value = sequences.value + 1
RETURNING value`,
	}
	for _, c := range domain.Collections {
		stmts[ListStatement(c)] = fmt.Sprintf("SELECT * FROM %s ORDER BY %s", c, order)
		stmts[DeleteStatement(c)] = fmt.Sprintf("DELETE FROM %s WHERE id = :id", c)
	}
	return stmts
}
