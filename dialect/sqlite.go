package dialect

import (
	"github.com/Konsultn-Engineering/parambind/schema"
)

type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

func (s SQLite) Name() string {
	return "sqlite"
}

func (s SQLite) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (s SQLite) Placeholder(int) string {
	return "?"
}

func (s SQLite) Numbered() bool {
	return false
}

func (s SQLite) CastType(schema.Type) string {
	return ""
}

func (s SQLite) RenderValue(v any) string {
	return renderLiteral(v, "X'", "'")
}

func (s SQLite) HashComments() bool {
	return false
}
