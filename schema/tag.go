package schema

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ParsedTag is the parsed form of a `db` struct tag.
type ParsedTag struct {
	ColumnName string // explicit or derived from the field name
	Skip       bool   // db:"-"
	Type       string // SQL type name from `type:`; empty means infer
}

// TagParser parses and caches `db` struct tags.
//
// Supported tag syntax:
//
//	`db:"deviceId"`                      // Basic column/parameter mapping
//	`db:"column:deviceId"`               // Explicit name
//	`db:"column:deviceId;type:nvarchar"` // Explicit type
//	`db:"type:bigint"`                   // Derived name, explicit type
//	`db:"-"`                             // Skip field entirely
//
// Unknown options are ignored, so model tags written for other tools still parse.
type TagParser struct {
	namingStrategy ColumnNamingStrategy
	cache          map[string]*ParsedTag
	cacheMu        sync.RWMutex
}

func NewTagParser(namingStrategy ColumnNamingStrategy) *TagParser {
	return &TagParser{
		namingStrategy: namingStrategy,
		cache:          make(map[string]*ParsedTag, 64),
	}
}

// ParseTag parses the `db` tag of a field.
func (p *TagParser) ParseTag(fieldName string, tag reflect.StructTag) (*ParsedTag, error) {
	tagValue := tag.Get("db")
	if tagValue == "" {
		return &ParsedTag{ColumnName: p.namingStrategy.ColumnName(fieldName)}, nil
	}

	cacheKey := fieldName + ":" + tagValue
	p.cacheMu.RLock()
	if cached, exists := p.cache[cacheKey]; exists {
		p.cacheMu.RUnlock()
		return cached, nil
	}
	p.cacheMu.RUnlock()

	parsed, err := p.parseTagValue(fieldName, tagValue)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fieldName, err)
	}

	p.cacheMu.Lock()
	p.cache[cacheKey] = parsed
	p.cacheMu.Unlock()

	return parsed, nil
}

// Tag format: "option1;key1:value1;key2:value2"
func (p *TagParser) parseTagValue(fieldName, tagValue string) (*ParsedTag, error) {
	if tagValue == "-" {
		return &ParsedTag{Skip: true}, nil
	}

	parsed := &ParsedTag{
		ColumnName: p.namingStrategy.ColumnName(fieldName),
	}

	if !strings.ContainsAny(tagValue, ";:") {
		parsed.ColumnName = tagValue
		return parsed, nil
	}

	for _, option := range strings.Split(tagValue, ";") {
		option = strings.TrimSpace(option)
		if option == "" {
			continue
		}
		colonIdx := strings.IndexByte(option, ':')
		if colonIdx == -1 {
			continue
		}
		key := strings.TrimSpace(option[:colonIdx])
		value := strings.TrimSpace(option[colonIdx+1:])
		switch key {
		case "column", "name":
			if value == "" {
				return nil, fmt.Errorf("empty %s option", key)
			}
			parsed.ColumnName = value
		case "type":
			if _, err := ParseType(value); err != nil {
				return nil, err
			}
			parsed.Type = value
		}
	}

	return parsed, nil
}
