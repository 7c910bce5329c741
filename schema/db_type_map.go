package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownType is returned by ParseType for names it cannot map.
var ErrUnknownType = errors.New("unknown type name")

// DBTypeMap maps SQL type names (upper case, without size arguments) to bind types.
var DBTypeMap = map[string]Type{
	// ===================
	// STANDARD SQL TYPES
	// ===================

	// Character types
	"CHAR":              TypeString,
	"VARCHAR":           TypeString,
	"TEXT":              TypeString,
	"CLOB":              TypeString,
	"NCHAR":             TypeString,
	"NVARCHAR":          TypeString,
	"NTEXT":             TypeString,
	"NCLOB":             TypeString,
	"CHARACTER":         TypeString,
	"CHAR VARYING":      TypeString,
	"CHARACTER VARYING": TypeString,

	// Integers
	"TINYINT":   TypeInt8,
	"SMALLINT":  TypeInt16,
	"MEDIUMINT": TypeInt32,
	"INT":       TypeInt32,
	"INTEGER":   TypeInt32,
	"BIGINT":    TypeInt64,
	"SERIAL":    TypeInt32,
	"BIGSERIAL": TypeInt64,

	// Unsigned integers
	"UNSIGNED TINYINT":   TypeUint8,
	"UNSIGNED SMALLINT":  TypeUint16,
	"UNSIGNED MEDIUMINT": TypeUint32,
	"UNSIGNED INT":       TypeUint32,
	"UNSIGNED INTEGER":   TypeUint32,
	"UNSIGNED BIGINT":    TypeUint64,

	// Floating point and exact numerics
	"REAL":             TypeFloat32,
	"FLOAT":            TypeFloat64,
	"DOUBLE":           TypeFloat64,
	"DOUBLE PRECISION": TypeFloat64,
	"NUMERIC":          TypeDecimal,
	"DECIMAL":          TypeDecimal,
	"DEC":              TypeDecimal,
	"FIXED":            TypeDecimal,
	"NUMBER":           TypeDecimal,

	// Boolean
	"BOOLEAN": TypeBool,
	"BOOL":    TypeBool,
	"BIT":     TypeBool,

	// Date and time
	"DATE":      TypeTime,
	"TIME":      TypeTime,
	"DATETIME":  TypeTime,
	"TIMESTAMP": TypeTime,
	"INTERVAL":  TypeDuration,

	// Binary
	"BINARY":     TypeBytes,
	"VARBINARY":  TypeBytes,
	"BLOB":       TypeBytes,
	"TINYBLOB":   TypeBytes,
	"MEDIUMBLOB": TypeBytes,
	"LONGBLOB":   TypeBytes,
	"BYTEA":      TypeBytes,
	"RAW":        TypeBytes,
	"IMAGE":      TypeBytes,

	// ===================
	// POSTGRESQL TYPES
	// ===================

	"SMALLSERIAL":                 TypeInt16,
	"SERIAL2":                     TypeInt16,
	"SERIAL4":                     TypeInt32,
	"SERIAL8":                     TypeInt64,
	"INT2":                        TypeInt16,
	"INT4":                        TypeInt32,
	"INT8":                        TypeInt64,
	"FLOAT4":                      TypeFloat32,
	"FLOAT8":                      TypeFloat64,
	"MONEY":                       TypeDecimal,
	"NAME":                        TypeString,
	"BPCHAR":                      TypeString,
	"CITEXT":                      TypeString,
	"TIMESTAMPTZ":                 TypeTime,
	"TIMESTAMP WITH TIME ZONE":    TypeTime,
	"TIMESTAMP WITHOUT TIME ZONE": TypeTime,
	"TIMETZ":                      TypeTime,
	"TIME WITH TIME ZONE":         TypeTime,
	"TIME WITHOUT TIME ZONE":      TypeTime,
	"JSON":                        TypeJSON,
	"JSONB":                       TypeJSON,
	"UUID":                        TypeUUID,
	"INET":                        TypeString,
	"CIDR":                        TypeString,
	"MACADDR":                     TypeString,
	"XML":                         TypeString,
	"ARRAY":                       TypeArray,

	// ===================
	// MYSQL TYPES
	// ===================

	"ENUM":       TypeString,
	"TINYTEXT":   TypeString,
	"MEDIUMTEXT": TypeString,
	"LONGTEXT":   TypeString,
	"YEAR":       TypeInt16,

	// ===================
	// SQL SERVER TYPES
	// ===================

	"UNIQUEIDENTIFIER": TypeUUID,
	"SMALLMONEY":       TypeDecimal,
	"DATETIME2":        TypeTime,
	"SMALLDATETIME":    TypeTime,
	"DATETIMEOFFSET":   TypeTime,
	"ROWVERSION":       TypeBytes,

	// ===================
	// SQLITE TYPES
	// ===================

	"UNSIGNED BIG INT":  TypeUint64,
	"VARYING CHARACTER": TypeString,
	"NATIVE CHARACTER":  TypeString,
}

// ParseType maps a SQL type name such as "NVARCHAR(50)", "bigint" or "text[]",
// or one of the Type names ("string", "int64"), to a Type.
func ParseType(name string) (Type, error) {
	normalized := strings.ToUpper(strings.Join(strings.Fields(name), " "))
	if normalized == "" {
		return TypeUnknown, fmt.Errorf("%w: empty", ErrUnknownType)
	}

	if strings.HasSuffix(normalized, "[]") {
		if _, err := ParseType(strings.TrimSuffix(normalized, "[]")); err != nil {
			return TypeUnknown, err
		}
		return TypeArray, nil
	}

	if t, ok := DBTypeMap[normalized]; ok {
		return t, nil
	}

	// VARCHAR(255), DECIMAL(10,2), NVARCHAR(MAX)
	if parenIdx := strings.IndexByte(normalized, '('); parenIdx != -1 {
		base := strings.TrimSpace(normalized[:parenIdx])
		if t, ok := DBTypeMap[base]; ok {
			return t, nil
		}
	}

	lower := strings.ToLower(normalized)
	for t, n := range typeNames {
		if n == lower && Type(t) != TypeUnknown {
			return Type(t), nil
		}
	}

	return TypeUnknown, fmt.Errorf("%w: %q", ErrUnknownType, name)
}
