package schema

import (
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Column is one column of a catalogued table.
type Column struct {
	Table string
	Name  string
	Type  Type
}

// Table is a catalogued table.
type Table struct {
	Name    string
	Columns []Column
}

// Collision is a parameter name that matches same-named columns of
// differing types in more than one table.
type Collision struct {
	Name    string
	Columns []Column
}

// Catalog holds table metadata for diagnostics. Parameter binding never reads
// it; it exists to point out names that a metadata-driven binder would get wrong.
type Catalog struct {
	mu     sync.RWMutex
	intro  *Introspector
	tables map[string]*Table
	order  []string
}

func NewCatalog(naming NamingStrategy) *Catalog {
	return &Catalog{
		intro:  NewIntrospector(naming),
		tables: make(map[string]*Table),
	}
}

// Register adds the tables described by model structs.
func (c *Catalog) Register(models ...any) error {
	for _, model := range models {
		meta, err := c.intro.Introspect(reflect.TypeOf(model))
		if err != nil {
			return err
		}
		columns := make([]Column, len(meta.Fields))
		for i, f := range meta.Fields {
			columns[i] = Column{Name: f.Column, Type: f.Type}
		}
		c.AddTable(meta.TableName, columns...)
	}
	return nil
}

// AddTable adds or replaces a table. Column.Table is filled in from name.
func (c *Catalog) AddTable(name string, columns ...Column) {
	t := &Table{Name: name, Columns: make([]Column, len(columns))}
	for i, col := range columns {
		col.Table = name
		t.Columns[i] = col
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tables[name]; !exists {
		c.order = append(c.order, name)
	}
	c.tables[name] = t
}

// Tables returns the catalogued tables in registration order.
func (c *Catalog) Tables() []Table {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Table, 0, len(c.order))
	for _, name := range c.order {
		t := c.tables[name]
		out = append(out, Table{Name: t.Name, Columns: append([]Column(nil), t.Columns...)})
	}
	return out
}

// Lookup returns every column named name, matched case-insensitively like
// unquoted SQL identifiers.
func (c *Catalog) Lookup(name string) []Column {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []Column
	for _, tableName := range c.order {
		for _, col := range c.tables[tableName].Columns {
			if strings.EqualFold(col.Name, name) {
				out = append(out, col)
			}
		}
	}
	return out
}

// Collisions reports the names that match columns in more than one table
// where those columns do not all share one type. Results are sorted by name.
func (c *Catalog) Collisions(names ...string) []Collision {
	seen := make(map[string]bool, len(names))
	var out []Collision
	for _, name := range names {
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true

		cols := c.Lookup(name)
		if len(cols) < 2 || !mixedTypes(cols) {
			continue
		}
		out = append(out, Collision{Name: name, Columns: cols})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func mixedTypes(cols []Column) bool {
	tables := make(map[string]bool, len(cols))
	mixed := false
	for _, col := range cols {
		tables[col.Table] = true
		if col.Type != cols[0].Type {
			mixed = true
		}
	}
	return mixed && len(tables) > 1
}
