package main

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/parambind/binder"
	"github.com/Konsultn-Engineering/parambind/dialect"
	"github.com/Konsultn-Engineering/parambind/schema"
)

type bindOutput struct {
	Dialect  string          `yaml:"dialect"`
	SQL      string          `yaml:"sql"`
	Args     []string        `yaml:"args"`
	Bindings []bindingOutput `yaml:"bindings"`
}

type bindingOutput struct {
	Name     string `yaml:"name"`
	Ordinal  int    `yaml:"ordinal"`
	Type     string `yaml:"type"`
	Explicit bool   `yaml:"explicit,omitempty"`
	Value    string `yaml:"value"`
}

func newBindCmd(opts *options) *cobra.Command {
	var params, types []string

	cmd := &cobra.Command{
		Use:   "bind <sql>",
		Short: "Resolve a query's placeholders and rewrite it for a dialect",
		Example: `  parambind bind "SELECT * FROM Devices WHERE DeviceId = @deviceId" --param deviceId="'20ab3b'"
  parambind bind "SELECT * FROM t WHERE id = @id" -p id=7 -t id=bigint -d postgres`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, b, err := opts.binder()
			if err != nil {
				return err
			}
			d, err := cfg.DialectImpl()
			if err != nil {
				return err
			}
			bag, err := parseBag(params, types)
			if err != nil {
				return err
			}

			stmt, err := b.Bind(args[0], bag, d)
			if err != nil {
				return err
			}
			return writeYAML(cmd, render(d, stmt))
		},
	}
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "parameter as name=value (repeatable)")
	cmd.Flags().StringArrayVarP(&types, "type", "t", nil, "explicit SQL type as name=TYPE (repeatable)")
	return cmd
}

func render(d dialect.Dialect, stmt *binder.Statement) bindOutput {
	out := bindOutput{
		Dialect:  d.Name(),
		SQL:      stmt.SQL,
		Args:     make([]string, len(stmt.Args)),
		Bindings: make([]bindingOutput, len(stmt.Bindings)),
	}
	for i, arg := range stmt.Args {
		out.Args[i] = d.RenderValue(arg)
	}
	for i, b := range stmt.Bindings {
		out.Bindings[i] = bindingOutput{
			Name:     b.Name,
			Ordinal:  b.Ordinal,
			Type:     b.Type.String(),
			Explicit: b.Explicit,
			Value:    d.RenderValue(b.Value),
		}
	}
	return out
}

func parseBag(params, types []string) (binder.Bag, error) {
	typeOf := make(map[string]string, len(types))
	for _, t := range types {
		name, sqlType, ok := strings.Cut(t, "=")
		if !ok || name == "" {
			return binder.Bag{}, fmt.Errorf("invalid --type %q: want name=TYPE", t)
		}
		typeOf[name] = sqlType
	}

	var bag []binder.Param
	for _, p := range params {
		name, raw, ok := strings.Cut(p, "=")
		if !ok || name == "" {
			return binder.Bag{}, fmt.Errorf("invalid --param %q: want name=value", p)
		}
		param := binder.Named(name, parseValue(raw, schema.TypeUnknown))
		if sqlType, typed := typeOf[name]; typed {
			t, err := schema.ParseType(sqlType)
			if err != nil {
				return binder.Bag{}, fmt.Errorf("parameter @%s: %w", name, err)
			}
			if param, err = binder.TypedSQL(name, parseValue(raw, t), sqlType); err != nil {
				return binder.Bag{}, err
			}
			delete(typeOf, name)
		}
		bag = append(bag, param)
	}

	if len(typeOf) > 0 {
		names := make([]string, 0, len(typeOf))
		for name := range typeOf {
			names = append(names, name)
		}
		sort.Strings(names)
		return binder.Bag{}, fmt.Errorf("--type given for parameters without --param: %s", strings.Join(names, ", "))
	}
	return binder.NewBag(bag...), nil
}

var plainDecimal = regexp.MustCompile(`^[-+]?[0-9]+\.[0-9]+$`)

// parseValue reads a command-line value. 'quoted' text is always a string and
// null is nil. An explicit type decides how the rest is read; text that does
// not parse as that type stays a string and is reported by the binder as a
// mismatch. Untyped, only plain integers, plain decimals and true/false are
// recognised, so 20e3, nan and inf stay strings.
func parseValue(raw string, t schema.Type) any {
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return strings.ReplaceAll(raw[1:len(raw)-1], "''", "'")
	}
	if strings.EqualFold(raw, "null") {
		return nil
	}

	switch {
	case t == schema.TypeUnknown:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
		if plainDecimal.MatchString(raw) {
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				return f
			}
		}
		if strings.EqualFold(raw, "true") || strings.EqualFold(raw, "false") {
			return strings.EqualFold(raw, "true")
		}
	case t.IsUnsigned():
		if n, err := strconv.ParseUint(raw, 10, 64); err == nil {
			return n
		}
	case t.IsInteger():
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case t == schema.TypeFloat32, t == schema.TypeFloat64:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case t == schema.TypeBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case t == schema.TypeBytes:
		return []byte(raw)
	}
	return raw
}
