package dialect

import (
	"github.com/Konsultn-Engineering/parambind/schema"
)

type MySQL struct{}

func NewMySQLDialect() Dialect {
	return &MySQL{}
}

func (m MySQL) Name() string {
	return "mysql"
}

func (m MySQL) QuoteIdentifier(name string) string {
	return "`" + name + "`"
}

func (m MySQL) Placeholder(n int) string {
	return "?"
}

func (m MySQL) Numbered() bool {
	return false
}

// CastType returns "": CAST(? AS ...) changes the expression, not the parameter.
func (m MySQL) CastType(schema.Type) string {
	return ""
}

func (m MySQL) RenderValue(v any) string {
	return renderLiteral(v, "X'", "'")
}

func (m MySQL) HashComments() bool {
	return true
}
