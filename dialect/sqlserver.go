package dialect

import (
	"strconv"
	"strings"

	"github.com/Konsultn-Engineering/parambind/schema"
)

// SQLServer renders @p1, @p2, ... as expected by the Microsoft driver for
// positional arguments.
type SQLServer struct{}

func NewSQLServerDialect() Dialect {
	return &SQLServer{}
}

func (s SQLServer) Name() string {
	return "sqlserver"
}

func (s SQLServer) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (s SQLServer) Placeholder(n int) string {
	return "@p" + strconv.Itoa(n)
}

func (s SQLServer) Numbered() bool {
	return true
}

func (s SQLServer) CastType(schema.Type) string {
	return ""
}

func (s SQLServer) RenderValue(v any) string {
	switch val := v.(type) {
	case string:
		return "N" + quoteString(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	}
	return renderLiteral(v, "0x", "")
}

func (s SQLServer) HashComments() bool {
	return false
}
