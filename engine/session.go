package engine

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/Konsultn-Engineering/parambind/binder"
	"github.com/Konsultn-Engineering/parambind/database"
	"github.com/Konsultn-Engineering/parambind/schema"
)

// Find runs query and scans every row into dest, a pointer to a slice of
// structs or struct pointers. Columns are matched to fields by column name,
// ignoring case; unmatched columns are discarded.
func (e *Engine) Find(ctx context.Context, dest any, query string, bag binder.Bag) error {
	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Pointer || destVal.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("Find expects pointer to slice, got %T", dest)
	}
	slice := destVal.Elem()
	elemType := slice.Type().Elem()
	isPtr := elemType.Kind() == reflect.Pointer
	structType := elemType
	if isPtr {
		structType = elemType.Elem()
	}

	meta, err := e.intro.Introspect(structType)
	if err != nil {
		return err
	}

	rows, err := e.Query(ctx, query, bag)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}
	paths := fieldPaths(meta, columns)

	for rows.Next() {
		elem := reflect.New(structType).Elem()
		if err := scanRow(rows, elem, paths); err != nil {
			return err
		}
		if isPtr {
			slice = reflect.Append(slice, elem.Addr())
		} else {
			slice = reflect.Append(slice, elem)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	destVal.Elem().Set(slice)
	return nil
}

// fieldPaths returns, per result column, the index path of its field or nil.
func fieldPaths(meta *schema.EntityMeta, columns []string) [][]int {
	paths := make([][]int, len(columns))
	for i, col := range columns {
		if f, ok := meta.ColumnMap[col]; ok {
			paths[i] = f.Index
			continue
		}
		for _, f := range meta.Fields {
			if strings.EqualFold(f.Column, col) || strings.EqualFold(f.Name, col) {
				paths[i] = f.Index
				break
			}
		}
	}
	return paths
}

func scanRow(rows database.Rows, elem reflect.Value, paths [][]int) error {
	targets := make([]any, len(paths))
	for i, path := range paths {
		if path == nil {
			targets[i] = new(any)
			continue
		}
		targets[i] = followPath(elem, path).Addr().Interface()
	}
	return rows.Scan(targets...)
}
