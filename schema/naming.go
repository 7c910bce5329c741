package schema

import (
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// Naming conventions for deriving parameter, column and table names from Go identifiers.

// pluralizeClient is shared; the client is read-only after construction.
var pluralizeClient = pluralizer.NewClient()

// =========================================================================
// Core Interfaces
// =========================================================================

// NamingStrategy combines column and table naming.
type NamingStrategy interface {
	ColumnNamingStrategy
	TableNamingStrategy
}

// ColumnNamingStrategy converts a Go field name to a column or parameter name.
// Must return the same result for the same input.
type ColumnNamingStrategy interface {
	ColumnName(fieldName string) string
}

// TableNamingStrategy converts a Go struct name to a table name.
type TableNamingStrategy interface {
	TableName(structName string) string
}

// =========================================================================
// Column Naming Strategies
// =========================================================================

// ColumnNamingType represents different column naming conventions.
type ColumnNamingType int

const (
	ColumnSnakeCase  ColumnNamingType = iota // device_id, created_at
	ColumnCamelCase                          // deviceId, createdAt
	ColumnPascalCase                         // DeviceId, CreatedAt
)

type columnNamingStrategy struct {
	namingType ColumnNamingType
}

// NewColumnNamingStrategy creates a new column naming strategy.
func NewColumnNamingStrategy(namingType ColumnNamingType) ColumnNamingStrategy {
	return &columnNamingStrategy{namingType: namingType}
}

func (c *columnNamingStrategy) ColumnName(fieldName string) string {
	switch c.namingType {
	case ColumnCamelCase:
		return toCamelCase(fieldName)
	case ColumnPascalCase:
		return toPascalCase(fieldName)
	default:
		return toSnakeCase(fieldName)
	}
}

// =========================================================================
// Table Naming Strategies
// =========================================================================

// TableNamingType represents different table naming conventions.
type TableNamingType int

const (
	TableSnakeCasePlural    TableNamingType = iota // devices, device_statuses
	TableSnakeCaseSingular                         // device, device_status
	TablePascalCasePlural                          // Devices, DeviceStatuses
	TablePascalCaseSingular                        // Device, DeviceStatus
)

type tableNamingStrategy struct {
	namingType TableNamingType
}

// NewTableNamingStrategy creates a new table naming strategy.
func NewTableNamingStrategy(namingType TableNamingType) TableNamingStrategy {
	return &tableNamingStrategy{namingType: namingType}
}

func (t *tableNamingStrategy) TableName(structName string) string {
	switch t.namingType {
	case TableSnakeCaseSingular:
		return toSnakeCase(structName)
	case TablePascalCasePlural:
		return pluralizeLast(toPascalCase(structName))
	case TablePascalCaseSingular:
		return toPascalCase(structName)
	default:
		return pluralize(toSnakeCase(structName))
	}
}

// =========================================================================
// Combined Strategies
// =========================================================================

// CombinedNamingStrategy combines column and table naming strategies.
type CombinedNamingStrategy struct {
	ColumnNamingStrategy
	TableNamingStrategy
}

func NewCombinedNamingStrategy(columns ColumnNamingStrategy, tables TableNamingStrategy) NamingStrategy {
	return &CombinedNamingStrategy{
		ColumnNamingStrategy: columns,
		TableNamingStrategy:  tables,
	}
}

// DefaultNamingStrategy returns snake_case columns with plural snake_case tables.
func DefaultNamingStrategy() NamingStrategy {
	return NewCombinedNamingStrategy(
		NewColumnNamingStrategy(ColumnSnakeCase),
		NewTableNamingStrategy(TableSnakeCasePlural),
	)
}

// ParameterNamingStrategy returns camelCase names, the usual spelling of query
// parameters (DeviceID -> deviceId).
func ParameterNamingStrategy() NamingStrategy {
	return NewCombinedNamingStrategy(
		NewColumnNamingStrategy(ColumnCamelCase),
		NewTableNamingStrategy(TableSnakeCasePlural),
	)
}

// SQLServerNamingStrategy returns PascalCase columns with plural PascalCase
// tables (Devices.DeviceId, DeviceStatuses.Status).
func SQLServerNamingStrategy() NamingStrategy {
	return NewCombinedNamingStrategy(
		NewColumnNamingStrategy(ColumnPascalCase),
		NewTableNamingStrategy(TablePascalCasePlural),
	)
}

// =========================================================================
// Case Conversion
// =========================================================================

// toSnakeCase converts PascalCase or camelCase to snake_case, keeping
// acronym runs together: DeviceID -> device_id, HTTPServer -> http_server.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}

	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return name
	}

	var result strings.Builder
	result.Grow(len(name) + 4)

	runes := []rune(name)
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			// aB -> a_b, a1B -> a1_b, ABc -> a_bc
			if unicode.IsLower(prev) || unicode.IsDigit(prev) ||
				(unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])) {
				result.WriteByte('_')
			}
		}
		result.WriteRune(unicode.ToLower(r))
	}

	return result.String()
}

func toCamelCase(name string) string {
	parts := strings.Split(toSnakeCase(name), "_")

	var result strings.Builder
	result.Grow(len(name))
	for i, part := range parts {
		if part == "" {
			continue
		}
		if i == 0 {
			result.WriteString(part)
			continue
		}
		result.WriteString(capitalize(part))
	}
	return result.String()
}

func toPascalCase(name string) string {
	parts := strings.Split(toSnakeCase(name), "_")

	var result strings.Builder
	result.Grow(len(name))
	for _, part := range parts {
		result.WriteString(capitalize(part))
	}
	return result.String()
}

func capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// =========================================================================
// Pluralization
// =========================================================================

func pluralize(name string) string {
	if name == "" {
		return ""
	}
	if i := strings.LastIndexByte(name, '_'); i != -1 {
		return name[:i+1] + pluralizeClient.Plural(name[i+1:])
	}
	return pluralizeClient.Plural(name)
}

// pluralizeLast pluralizes the final word of a PascalCase name, so that
// DeviceStatus becomes DeviceStatuses rather than a case-folded whole word.
func pluralizeLast(name string) string {
	runes := []rune(name)
	i := len(runes) - 1
	for i > 0 && !unicode.IsUpper(runes[i]) {
		i--
	}
	head, last := string(runes[:i]), string(runes[i:])
	return head + capitalize(pluralizeClient.Plural(strings.ToLower(last)))
}

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
