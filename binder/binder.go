package binder

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/parambind/cache"
	"github.com/Konsultn-Engineering/parambind/schema"
	"github.com/Konsultn-Engineering/parambind/utils"
)

const DefaultPrefix = '@'

// Config controls placeholder syntax and matching. The zero value binds
// case-sensitive @name placeholders without caching.
type Config struct {
	// CaseInsensitive matches placeholder names to bag entries ignoring case.
	// Names that then collide are reported as ambiguous.
	CaseInsensitive bool `json:"case_insensitive" yaml:"case_insensitive"`

	// Prefix is "@" (default) or ":".
	Prefix string `json:"prefix" yaml:"prefix"`

	// TypedPlaceholders adds casts for explicitly typed bindings on dialects
	// that support them, e.g. $1::text.
	TypedPlaceholders bool `json:"typed_placeholders" yaml:"typed_placeholders"`

	// PlanCacheSize bounds the parsed-query cache; <= 0 disables it.
	PlanCacheSize int `json:"plan_cache_size" yaml:"plan_cache_size"`

	// HashComments treats '#' to end of line as a comment, as MySQL does.
	// Leave it off where '#' is an operator, e.g. PostgreSQL.
	HashComments bool `json:"hash_comments" yaml:"hash_comments"`
}

func (c Config) Validate() error {
	switch c.Prefix {
	case "", "@", ":":
		return nil
	}
	return fmt.Errorf("invalid placeholder prefix %q: must be \"@\" or \":\"", c.Prefix)
}

func (c Config) prefix() byte {
	if c.Prefix == "" {
		return DefaultPrefix
	}
	return c.Prefix[0]
}

type Option func(*Binder)

func WithLogger(logger *zap.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithNaming sets how BagFromStruct derives parameter names from field names.
func WithNaming(naming schema.NamingStrategy) Option {
	return func(b *Binder) {
		b.intro = schema.NewIntrospector(naming)
	}
}

// Binder resolves placeholders to bindings. It is safe for concurrent use.
type Binder struct {
	cfg    Config
	prefix byte
	plans  *cache.PlanCache[*plan]
	intro  *schema.Introspector
	logger *zap.Logger
}

func New(cfg Config, opts ...Option) (*Binder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := &Binder{
		cfg:    cfg,
		prefix: cfg.prefix(),
		plans:  cache.NewPlanCache[*plan](cfg.PlanCacheSize),
		intro:  structParams,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

var defaultBinder, _ = New(Config{})

// Resolve binds the @name placeholders of query with the zero Config.
func Resolve(query string, bag Bag) ([]Binding, error) {
	return defaultBinder.Resolve(query, bag)
}

func (b *Binder) Config() Config {
	return b.cfg
}

func (b *Binder) Placeholders(query string) iter.Seq[Placeholder] {
	return placeholders(query, b.syntax())
}

func (b *Binder) Occurrences(query string) iter.Seq[Occurrence] {
	return occurrences(query, b.syntax())
}

func (b *Binder) syntax() syntax {
	return syntax{prefix: b.prefix, fold: b.cfg.CaseInsensitive, hashComments: b.cfg.HashComments}
}

func (b *Binder) BagFromStruct(v any) (Bag, error) {
	return bagFromStruct(b.intro, v)
}

// Binding is the resolved value of one distinct placeholder.
type Binding struct {
	Name     string
	Ordinal  int
	Value    any
	Type     schema.Type
	Explicit bool // Type was supplied by the caller
}

// Resolve returns one binding per distinct placeholder of query, in order of
// first occurrence. Types come from the supplied values or explicit types
// only. Bag entries the query does not reference are ignored.
func (b *Binder) Resolve(query string, bag Bag) ([]Binding, error) {
	return b.resolve(b.plan(query), bag)
}

func (b *Binder) resolve(p *plan, bag Bag) ([]Binding, error) {
	idx := bag.index(b.prefix, b.cfg.CaseInsensitive)
	bindings := make([]Binding, 0, len(p.placeholders))
	for _, ph := range p.placeholders {
		key := ph.Name
		if b.cfg.CaseInsensitive {
			key = strings.ToLower(key)
		}

		matches := idx[key]
		switch len(matches) {
		case 0:
			return nil, unbound(ph.Name)
		case 1:
		default:
			candidates := make([]string, len(matches))
			for i, m := range matches {
				candidates[i] = bag.params[m].Name
			}
			return nil, ambiguous(ph.Name, candidates)
		}

		binding, err := bind(ph, bag.params[matches[0]])
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

func bind(ph Placeholder, p Param) (Binding, error) {
	actual, err := schema.TypeOf(p.Value)
	if err != nil {
		return Binding{}, unsupported(ph.Name, p.Value, err)
	}

	binding := Binding{Name: ph.Name, Ordinal: ph.Ordinal, Value: p.Value, Type: actual}
	if p.Type == schema.TypeUnknown {
		return binding, nil
	}
	if !schema.Compatible(p.Type, actual, p.Value) {
		return Binding{}, mismatch(ph.Name, p.Type, actual)
	}
	binding.Type = p.Type
	binding.Explicit = true
	return binding, nil
}

// Unused returns the names of bag entries that no binding consumed.
func (b *Binder) Unused(bag Bag, bindings []Binding) []string {
	used := make(map[string]bool, len(bindings))
	for _, binding := range bindings {
		used[b.key(binding.Name)] = true
	}
	var out []string
	for _, p := range bag.params {
		if !used[b.key(p.Name)] {
			out = append(out, p.Name)
		}
	}
	return out
}

func (b *Binder) key(name string) string {
	name = strings.TrimPrefix(name, string(b.prefix))
	if b.cfg.CaseInsensitive {
		return strings.ToLower(name)
	}
	return name
}

type plan struct {
	query        string
	placeholders []Placeholder
	occurrences  []Occurrence
}

func (b *Binder) plan(query string) *plan {
	key := utils.Fingerprint(string(b.prefix), strconv.FormatBool(b.cfg.CaseInsensitive),
		strconv.FormatBool(b.cfg.HashComments), query)
	p := b.plans.GetOrCompute(key, func() *plan { return b.parse(query) })
	if p.query != query {
		// fingerprint collision
		return b.parse(query)
	}
	return p
}

func (b *Binder) parse(query string) *plan {
	p := &plan{query: query}
	for occ := range b.Occurrences(query) {
		if occ.Ordinal > len(p.placeholders) {
			p.placeholders = append(p.placeholders, Placeholder{Name: occ.Name, Ordinal: occ.Ordinal, Offset: occ.Start})
		}
		p.occurrences = append(p.occurrences, occ)
	}
	b.logger.Debug("parsed query",
		zap.Int("placeholders", len(p.placeholders)),
		zap.Int("occurrences", len(p.occurrences)),
		zap.Bool("cached", b.plans.Enabled()))
	return p
}
