package binder

import (
	"strings"

	"github.com/Konsultn-Engineering/parambind/dialect"
	"github.com/Konsultn-Engineering/parambind/schema"
)

// Statement is a query rewritten for a dialect, ready for the driver.
type Statement struct {
	SQL      string
	Args     []any
	Bindings []Binding
}

// Bind resolves query and rewrites its placeholders for d. Numbered dialects
// get one argument per binding; ? dialects get one per occurrence.
func (b *Binder) Bind(query string, bag Bag, d dialect.Dialect) (*Statement, error) {
	p := b.plan(query)
	bindings, err := b.resolve(p, bag)
	if err != nil {
		return nil, err
	}
	return b.render(p, bindings, d), nil
}

func (b *Binder) render(p *plan, bindings []Binding, d dialect.Dialect) *Statement {
	stmt := &Statement{Bindings: bindings}

	numbered := d.Numbered()
	if numbered {
		stmt.Args = make([]any, len(bindings))
		for i, binding := range bindings {
			stmt.Args[i] = schema.DriverArg(binding.Value)
		}
	} else {
		stmt.Args = make([]any, 0, len(p.occurrences))
	}

	var sb strings.Builder
	sb.Grow(len(p.query) + len(p.occurrences)*2)
	last := 0
	for i, occ := range p.occurrences {
		binding := bindings[occ.Ordinal-1]
		sb.WriteString(p.query[last:occ.Start])

		n := occ.Ordinal
		if !numbered {
			n = i + 1
			stmt.Args = append(stmt.Args, schema.DriverArg(binding.Value))
		}
		sb.WriteString(d.Placeholder(n))
		if b.cfg.TypedPlaceholders && binding.Explicit {
			if cast := d.CastType(binding.Type); cast != "" {
				sb.WriteString("::")
				sb.WriteString(cast)
			}
		}
		last = occ.End
	}
	sb.WriteString(p.query[last:])
	stmt.SQL = sb.String()
	return stmt
}
