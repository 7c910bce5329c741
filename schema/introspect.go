package schema

import (
	"fmt"
	"reflect"
	"sync"
)

// Introspector builds and caches EntityMeta for model structs under one naming strategy.
type Introspector struct {
	naming NamingStrategy
	tags   *TagParser
	cache  sync.Map // map[reflect.Type]*EntityMeta
}

func NewIntrospector(naming NamingStrategy) *Introspector {
	if naming == nil {
		naming = DefaultNamingStrategy()
	}
	return &Introspector{
		naming: naming,
		tags:   NewTagParser(naming),
	}
}

func (in *Introspector) Introspect(t reflect.Type) (*EntityMeta, error) {
	if t == nil {
		return nil, fmt.Errorf("invalid model type: nil")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("invalid model type: %s", t.Kind())
	}
	if meta, ok := in.cache.Load(t); ok {
		return meta.(*EntityMeta), nil
	}
	meta, err := in.buildMeta(t)
	if err != nil {
		return nil, err
	}
	actual, _ := in.cache.LoadOrStore(t, meta)
	return actual.(*EntityMeta), nil
}

func (in *Introspector) buildMeta(t reflect.Type) (*EntityMeta, error) {
	meta := &EntityMeta{
		Type:      t,
		Name:      t.Name(),
		TableName: in.naming.TableName(t.Name()),
		ColumnMap: make(map[string]*FieldMeta),
	}
	if namer, ok := reflect.New(t).Interface().(TableNamer); ok {
		meta.TableName = namer.TableName()
	}

	if err := in.collectFields(meta, t, nil); err != nil {
		return nil, fmt.Errorf("%s: %w", t.Name(), err)
	}
	return meta, nil
}

func (in *Introspector) collectFields(meta *EntityMeta, t reflect.Type, parent []int) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), parent...), i)

		// Promote fields of embedded structs without their own tag.
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && sf.Tag.Get("db") == "" {
			if err := in.collectFields(meta, sf.Type, index); err != nil {
				return err
			}
			continue
		}
		if !sf.IsExported() {
			continue
		}

		tag, err := in.tags.ParseTag(sf.Name, sf.Tag)
		if err != nil {
			return err
		}
		if tag.Skip {
			continue
		}

		field := &FieldMeta{
			Name:   sf.Name,
			Column: tag.ColumnName,
			GoType: sf.Type,
			Index:  index,
		}
		if tag.Type != "" {
			field.Type, err = ParseType(tag.Type)
			field.Explicit = true
		} else {
			field.Type, err = GoType(sf.Type)
		}
		if err != nil {
			return fmt.Errorf("field %s: %w", sf.Name, err)
		}

		if _, dup := meta.ColumnMap[field.Column]; dup {
			return fmt.Errorf("field %s: duplicate column %q", sf.Name, field.Column)
		}
		meta.Fields = append(meta.Fields, field)
		meta.ColumnMap[field.Column] = field
	}
	return nil
}
