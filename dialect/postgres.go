package dialect

import (
	"strconv"

	"github.com/Konsultn-Engineering/parambind/schema"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (p Postgres) Name() string {
	return "postgres"
}

func (p Postgres) QuoteIdentifier(name string) string {
	return `"` + name + `"`
}

func (p Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p Postgres) Numbered() bool {
	return true
}

var postgresTypes = map[schema.Type]string{
	schema.TypeBool:     "boolean",
	schema.TypeInt8:     "smallint",
	schema.TypeInt16:    "smallint",
	schema.TypeInt32:    "integer",
	schema.TypeInt64:    "bigint",
	schema.TypeUint8:    "smallint",
	schema.TypeUint16:   "integer",
	schema.TypeUint32:   "bigint",
	schema.TypeUint64:   "numeric",
	schema.TypeFloat32:  "real",
	schema.TypeFloat64:  "double precision",
	schema.TypeDecimal:  "numeric",
	schema.TypeString:   "text",
	schema.TypeBytes:    "bytea",
	schema.TypeTime:     "timestamptz",
	schema.TypeDuration: "interval",
	schema.TypeUUID:     "uuid",
	schema.TypeJSON:     "jsonb",
}

func (p Postgres) CastType(t schema.Type) string {
	return postgresTypes[t]
}

func (Postgres) RenderValue(v any) string {
	return renderLiteral(v, `'\x`, `'::bytea`)
}

func (p Postgres) HashComments() bool {
	return false
}
