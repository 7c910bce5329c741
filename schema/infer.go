package schema

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// ErrUnsupportedType is returned when a value has no bind type.
var ErrUnsupportedType = errors.New("unsupported parameter type")

var (
	timeType   = reflect.TypeFor[time.Time]()
	boolType   = reflect.TypeFor[bool]()
	valuerType = reflect.TypeFor[driver.Valuer]()
)

// TypeOf derives the bind type of v from its runtime type alone.
func TypeOf(v any) (Type, error) {
	if v == nil {
		return TypeNull, nil
	}
	if t, ok := builtinType(v); ok {
		return t, nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return TypeNull, nil
		}
		// *uuid.UUID is a UUID, not the string its Value method yields.
		if t, ok := builtinType(rv.Elem().Interface()); ok {
			return t, nil
		}
	}

	// Checked before dereferencing: Value may have a pointer receiver.
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		if err != nil {
			return TypeUnknown, fmt.Errorf("%T: driver.Valuer: %w", v, err)
		}
		return TypeOf(dv)
	}

	if rv.Kind() == reflect.Pointer {
		return TypeOf(rv.Elem().Interface())
	}
	return kindType(rv)
}

// GoType derives the bind type of a static Go type, as used for model fields.
func GoType(t reflect.Type) (Type, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	// sql.NullString, sql.Null[T] and friends: {V, Valid}
	if t.Kind() == reflect.Struct && t != timeType && t.NumField() == 2 {
		if f, ok := t.FieldByName("Valid"); ok && f.Type == boolType {
			return GoType(t.Field(0).Type)
		}
	}
	if !t.Implements(valuerType) && reflect.PointerTo(t).Implements(valuerType) {
		return TypeOf(reflect.New(t).Interface())
	}
	return TypeOf(reflect.New(t).Elem().Interface())
}

func builtinType(v any) (Type, bool) {
	switch x := v.(type) {
	case bool:
		return TypeBool, true
	case int:
		return TypeInt64, true
	case int8:
		return TypeInt8, true
	case int16:
		return TypeInt16, true
	case int32:
		return TypeInt32, true
	case int64:
		return TypeInt64, true
	case uint:
		return TypeUint64, true
	case uint8:
		return TypeUint8, true
	case uint16:
		return TypeUint16, true
	case uint32:
		return TypeUint32, true
	case uint64:
		return TypeUint64, true
	case float32:
		return TypeFloat32, true
	case float64:
		return TypeFloat64, true
	case string:
		return TypeString, true
	case json.RawMessage:
		return TypeJSON, true
	case []byte:
		return TypeBytes, true
	case time.Time:
		return TypeTime, true
	case time.Duration:
		return TypeDuration, true
	case uuid.UUID:
		return TypeUUID, true
	case ulid.ULID:
		return TypeString, true
	case big.Float, big.Int:
		return TypeDecimal, true
	case sql.NullBool:
		return nullable(x.Valid, TypeBool), true
	case sql.NullByte:
		return nullable(x.Valid, TypeUint8), true
	case sql.NullInt16:
		return nullable(x.Valid, TypeInt16), true
	case sql.NullInt32:
		return nullable(x.Valid, TypeInt32), true
	case sql.NullInt64:
		return nullable(x.Valid, TypeInt64), true
	case sql.NullFloat64:
		return nullable(x.Valid, TypeFloat64), true
	case sql.NullString:
		return nullable(x.Valid, TypeString), true
	case sql.NullTime:
		return nullable(x.Valid, TypeTime), true
	}
	return TypeUnknown, false
}

func nullable(valid bool, t Type) Type {
	if valid {
		return t
	}
	return TypeNull
}

// kindType handles named types by falling back to their underlying kind.
func kindType(rv reflect.Value) (Type, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return TypeBool, nil
	case reflect.Int, reflect.Int64:
		return TypeInt64, nil
	case reflect.Int8:
		return TypeInt8, nil
	case reflect.Int16:
		return TypeInt16, nil
	case reflect.Int32:
		return TypeInt32, nil
	case reflect.Uint, reflect.Uint64:
		return TypeUint64, nil
	case reflect.Uint8:
		return TypeUint8, nil
	case reflect.Uint16:
		return TypeUint16, nil
	case reflect.Uint32:
		return TypeUint32, nil
	case reflect.Float32:
		return TypeFloat32, nil
	case reflect.Float64:
		return TypeFloat64, nil
	case reflect.String:
		return TypeString, nil
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return TypeBytes, nil
		}
		return TypeArray, nil
	case reflect.Map:
		return TypeJSON, nil
	default:
		return TypeUnknown, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
	}
}

// Compatible reports whether v, whose inferred type is actual, may be bound as explicit.
func Compatible(explicit, actual Type, v any) bool {
	switch {
	case explicit == TypeUnknown, explicit == actual, actual == TypeNull:
		return true
	case explicit.IsInteger() && actual.IsInteger():
		return fitsInteger(explicit, underlying(v))
	case explicit.IsFractional() && (actual.IsInteger() || actual.IsFractional()):
		return explicit != TypeFloat32 || fitsFloat32(underlying(v))
	}

	x := underlying(v)
	switch explicit {
	case TypeDecimal:
		s, ok := x.(string)
		if !ok {
			return false
		}
		_, ok = new(big.Float).SetString(s)
		return ok
	case TypeUUID:
		switch s := x.(type) {
		case string:
			_, err := uuid.Parse(s)
			return err == nil
		case []byte:
			return len(s) == 16
		}
	case TypeJSON:
		switch s := x.(type) {
		case string:
			return json.Valid([]byte(s))
		case []byte:
			return json.Valid(s)
		}
		return actual == TypeArray
	case TypeBytes:
		return actual == TypeUUID
	}
	return false
}

// DriverArg converts v into the argument handed to the driver. Only types whose
// driver encoding differs from their bind type are rewritten.
func DriverArg(v any) any {
	switch x := v.(type) {
	case ulid.ULID:
		return x.String()
	case *ulid.ULID:
		if x == nil {
			return nil
		}
		return x.String()
	}
	return v
}

// underlying strips pointers and driver.Valuer wrappers (sql.NullInt32 etc).
// Like TypeOf, it asks a pointer for its Value before dereferencing it.
func underlying(v any) any {
	for {
		if v == nil {
			return nil
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil
			}
			if elem := rv.Elem().Interface(); plain(elem) {
				return elem
			}
		}
		if plain(v) {
			return v
		}
		if valuer, ok := v.(driver.Valuer); ok {
			dv, err := valuer.Value()
			if err != nil {
				return v
			}
			v = dv
			continue
		}
		if rv.Kind() != reflect.Pointer {
			return v
		}
		v = rv.Elem().Interface()
	}
}

// plain reports whether v is a builtin bind type other than the sql.Null wrappers.
func plain(v any) bool {
	if _, ok := builtinType(v); !ok {
		return false
	}
	switch v.(type) {
	case sql.NullBool, sql.NullByte, sql.NullInt16, sql.NullInt32, sql.NullInt64,
		sql.NullFloat64, sql.NullString, sql.NullTime:
		return false
	}
	return true
}

func fitsFloat32(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) <= math.MaxFloat32
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func fitsInteger(t Type, v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if t.IsUnsigned() {
			return n >= 0 && uint64(n) <= maxUnsigned(t)
		}
		return n >= minSigned(t) && n <= maxSigned(t)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n := rv.Uint()
		if t.IsUnsigned() {
			return n <= maxUnsigned(t)
		}
		return n <= uint64(maxSigned(t))
	}
	return false
}

func minSigned(t Type) int64 {
	switch t {
	case TypeInt8:
		return math.MinInt8
	case TypeInt16:
		return math.MinInt16
	case TypeInt32:
		return math.MinInt32
	}
	return math.MinInt64
}

func maxSigned(t Type) int64 {
	switch t {
	case TypeInt8:
		return math.MaxInt8
	case TypeInt16:
		return math.MaxInt16
	case TypeInt32:
		return math.MaxInt32
	}
	return math.MaxInt64
}

func maxUnsigned(t Type) uint64 {
	switch t {
	case TypeUint8:
		return math.MaxUint8
	case TypeUint16:
		return math.MaxUint16
	case TypeUint32:
		return math.MaxUint32
	}
	return math.MaxUint64
}
