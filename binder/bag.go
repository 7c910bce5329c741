package binder

import (
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strings"

	"github.com/Konsultn-Engineering/parambind/schema"
)

// Param is a caller-supplied value for a named placeholder. A zero Type means
// the type is inferred from Value.
type Param struct {
	Name  string
	Value any
	Type  schema.Type
}

func Named(name string, value any) Param {
	return Param{Name: name, Value: value}
}

func Typed(name string, value any, t schema.Type) Param {
	return Param{Name: name, Value: value, Type: t}
}

// TypedSQL is Typed with a SQL type name such as "NVARCHAR(50)".
func TypedSQL(name string, value any, sqlType string) (Param, error) {
	t, err := schema.ParseType(sqlType)
	if err != nil {
		return Param{}, fmt.Errorf("parameter @%s: %w", name, err)
	}
	return Typed(name, value, t), nil
}

// Bag is an immutable, ordered set of parameter values. Duplicate names are
// kept and reported when a query references them.
type Bag struct {
	params []Param
}

func NewBag(params ...Param) Bag {
	return Bag{params: slices.Clone(params)}
}

// BagFromMap builds a bag with entries sorted by name.
func BagFromMap(m map[string]any) Bag {
	params := make([]Param, 0, len(m))
	for name, v := range m {
		params = append(params, Named(name, v))
	}
	slices.SortFunc(params, func(a, b Param) int { return strings.Compare(a.Name, b.Name) })
	return Bag{params: params}
}

var structParams = schema.NewIntrospector(schema.ParameterNamingStrategy())

// BagFromStruct builds a bag from the exported fields of a struct, naming
// parameters in camelCase unless a db tag says otherwise.
func BagFromStruct(v any) (Bag, error) {
	return bagFromStruct(structParams, v)
}

func bagFromStruct(intro *schema.Introspector, v any) (Bag, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return Bag{}, fmt.Errorf("parameter struct: nil %T", v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return Bag{}, fmt.Errorf("parameter struct: expected struct, got %T", v)
	}

	meta, err := intro.Introspect(rv.Type())
	if err != nil {
		return Bag{}, fmt.Errorf("parameter struct: %w", err)
	}

	params := make([]Param, 0, len(meta.Fields))
	for _, f := range meta.Fields {
		p := Param{Name: f.Column, Value: rv.FieldByIndex(f.Index).Interface()}
		if f.Explicit {
			p.Type = f.Type
		}
		params = append(params, p)
	}
	return Bag{params: params}, nil
}

func (b Bag) Len() int {
	return len(b.params)
}

func (b Bag) At(i int) Param {
	return b.params[i]
}

func (b Bag) All() iter.Seq[Param] {
	return slices.Values(b.params)
}

func (b Bag) Names() []string {
	names := make([]string, len(b.params))
	for i, p := range b.params {
		names[i] = p.Name
	}
	return names
}

// With returns a copy of b with params appended.
func (b Bag) With(params ...Param) Bag {
	return Bag{params: slices.Concat(b.params, params)}
}

// index maps lookup keys to bag positions. A leading prefix on an entry
// name is ignored, so "@deviceId" and "deviceId" are the same entry.
func (b Bag) index(prefix byte, fold bool) map[string][]int {
	idx := make(map[string][]int, len(b.params))
	for i, p := range b.params {
		key := strings.TrimPrefix(p.Name, string(prefix))
		if fold {
			key = strings.ToLower(key)
		}
		idx[key] = append(idx[key], i)
	}
	return idx
}
