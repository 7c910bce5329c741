package schema

import (
	"reflect"
)

// Type is the logical type a parameter is bound as.
type Type uint8

const (
	TypeUnknown Type = iota // not supplied; inferred from the value
	TypeNull
	TypeBool
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
	TypeFloat64
	TypeDecimal
	TypeString
	TypeBytes
	TypeTime
	TypeDuration
	TypeUUID
	TypeJSON
	TypeArray
)

var typeNames = [...]string{
	TypeUnknown:  "unknown",
	TypeNull:     "null",
	TypeBool:     "bool",
	TypeInt8:     "int8",
	TypeInt16:    "int16",
	TypeInt32:    "int32",
	TypeInt64:    "int64",
	TypeUint8:    "uint8",
	TypeUint16:   "uint16",
	TypeUint32:   "uint32",
	TypeUint64:   "uint64",
	TypeFloat32:  "float32",
	TypeFloat64:  "float64",
	TypeDecimal:  "decimal",
	TypeString:   "string",
	TypeBytes:    "bytes",
	TypeTime:     "time",
	TypeDuration: "duration",
	TypeUUID:     "uuid",
	TypeJSON:     "json",
	TypeArray:    "array",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "unknown"
}

// MarshalText renders the type name, so bindings read well in YAML and JSON output.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t Type) IsInteger() bool {
	return t >= TypeInt8 && t <= TypeUint64
}

func (t Type) IsUnsigned() bool {
	return t >= TypeUint8 && t <= TypeUint64
}

// IsFractional reports float and decimal types.
func (t Type) IsFractional() bool {
	return t == TypeFloat32 || t == TypeFloat64 || t == TypeDecimal
}

// TableNamer lets a model override its derived table name.
type TableNamer interface {
	TableName() string
}

// FieldMeta describes one mapped struct field.
type FieldMeta struct {
	Name     string // Go field name
	Column   string // column or parameter name
	GoType   reflect.Type
	Type     Type
	Explicit bool // Type came from a `type:` tag option
	Index    []int
}

// EntityMeta describes a model struct.
type EntityMeta struct {
	Type      reflect.Type
	Name      string
	TableName string
	Fields    []*FieldMeta
	ColumnMap map[string]*FieldMeta
}
