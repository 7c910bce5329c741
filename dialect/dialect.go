package dialect

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/parambind/schema"
)

type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	// Placeholder renders the n-th (1-based) driver placeholder.
	Placeholder(n int) string
	// Numbered reports whether placeholders carry their position, so that a
	// repeated parameter can reuse one argument.
	Numbered() bool
	// CastType returns the SQL type used for explicit placeholder casts, or ""
	// when the dialect does not support casting placeholders.
	CastType(t schema.Type) string
	// RenderValue renders v as a literal. Used for logs only, never for execution.
	RenderValue(v any) string
	// HashComments reports whether '#' starts a line comment.
	HashComments() bool
}

// Lookup resolves a dialect by name or database/sql driver name.
func Lookup(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "postgres", "postgresql", "pgx", "cockroach":
		return NewPostgresDialect(), nil
	case "mysql", "mariadb":
		return NewMySQLDialect(), nil
	case "tidb":
		return NewTiDBDialect(), nil
	case "sqlite", "sqlite3":
		return NewSQLiteDialect(), nil
	case "sqlserver", "mssql", "azuresql":
		return NewSQLServerDialect(), nil
	default:
		return nil, fmt.Errorf("unknown dialect %q", name)
	}
}
