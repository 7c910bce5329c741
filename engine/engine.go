package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/parambind/binder"
	"github.com/Konsultn-Engineering/parambind/cache"
	"github.com/Konsultn-Engineering/parambind/config"
	"github.com/Konsultn-Engineering/parambind/database"
	"github.com/Konsultn-Engineering/parambind/dialect"
	"github.com/Konsultn-Engineering/parambind/schema"
	"github.com/Konsultn-Engineering/parambind/utils"
)

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithCatalog enables warnings for parameter names that match same-named
// columns of differing types. Binding never reads the catalog.
func WithCatalog(catalog *schema.Catalog) Option {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithStatementCache runs statements through cached prepared statements when
// the database supports preparing.
func WithStatementCache(stmts *cache.StatementCache) Option {
	return func(e *Engine) {
		e.stmts = stmts
	}
}

// WithNaming sets how Find maps result columns to struct fields.
func WithNaming(naming schema.NamingStrategy) Option {
	return func(e *Engine) {
		e.intro = schema.NewIntrospector(naming)
	}
}

// Engine binds named parameters and runs the result against a database.
type Engine struct {
	db      database.Database
	dialect dialect.Dialect
	binder  *binder.Binder
	catalog *schema.Catalog
	stmts   *cache.StatementCache
	intro   *schema.Introspector
	logger  *zap.Logger
}

// New creates an engine. A nil binder uses the zero binder.Config.
func New(db database.Database, d dialect.Dialect, b *binder.Binder, opts ...Option) (*Engine, error) {
	if db == nil {
		return nil, errors.New("engine: nil database")
	}
	if d == nil {
		return nil, errors.New("engine: nil dialect")
	}
	if b == nil {
		var err error
		if b, err = binder.New(binder.Config{}); err != nil {
			return nil, err
		}
	}

	e := &Engine{
		db:      db,
		dialect: d,
		binder:  b,
		intro:   schema.NewIntrospector(nil),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// NewFromConfig creates an engine with the binder, dialect and statement
// cache described by cfg. Later options override those.
func NewFromConfig(db database.Database, cfg *config.Config, logger *zap.Logger, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b, err := cfg.NewBinder(logger)
	if err != nil {
		return nil, err
	}
	d, err := cfg.DialectImpl()
	if err != nil {
		return nil, err
	}
	stmts, err := cfg.NewStatementCache()
	if err != nil {
		return nil, fmt.Errorf("statement cache: %w", err)
	}

	opts = append([]Option{WithLogger(logger), WithStatementCache(stmts)}, opts...)
	return New(db, d, b, opts...)
}

func (e *Engine) Dialect() dialect.Dialect {
	return e.dialect
}

func (e *Engine) Binder() *binder.Binder {
	return e.binder
}

// Bind resolves and rewrites query without touching the database.
func (e *Engine) Bind(query string, bag binder.Bag) (*binder.Statement, error) {
	stmt, err := e.binder.Bind(query, bag, e.dialect)
	if err != nil {
		return nil, err
	}
	e.diagnose(stmt, bag)
	return stmt, nil
}

func (e *Engine) Query(ctx context.Context, query string, bag binder.Bag) (database.Rows, error) {
	stmt, err := e.Bind(query, bag)
	if err != nil {
		return nil, err
	}

	if prepared, release, err := e.prepared(ctx, stmt); err != nil {
		return nil, err
	} else if prepared != nil {
		// Open rows keep the underlying statement alive past release.
		defer release()
		return database.QueryStmt(ctx, prepared, stmt.Args...)
	}
	return e.db.QueryContext(ctx, stmt.SQL, stmt.Args...)
}

func (e *Engine) Exec(ctx context.Context, query string, bag binder.Bag) (database.Result, error) {
	stmt, err := e.Bind(query, bag)
	if err != nil {
		return nil, err
	}

	if prepared, release, err := e.prepared(ctx, stmt); err != nil {
		return nil, err
	} else if prepared != nil {
		defer release()
		return database.ExecStmt(ctx, prepared, stmt.Args...)
	}
	return e.db.ExecContext(ctx, stmt.SQL, stmt.Args...)
}

func (e *Engine) PingContext(ctx context.Context) error {
	return e.db.PingContext(ctx)
}

// Close releases cached prepared statements. The database stays open; it
// belongs to the caller.
func (e *Engine) Close() error {
	if e.stmts == nil {
		return nil
	}
	return e.stmts.Close()
}

// prepared returns the cached statement for stmt and its release func, or a
// nil statement when the engine runs queries unprepared.
func (e *Engine) prepared(ctx context.Context, stmt *binder.Statement) (*sql.Stmt, func(), error) {
	if e.stmts == nil {
		return nil, nil, nil
	}
	preparer, ok := e.db.(cache.Preparer)
	if !ok {
		return nil, nil, nil
	}

	key := utils.Mix64(utils.U64(e.dialect.Name()), utils.U64(stmt.SQL))
	prepared, release, err := e.stmts.GetOrPrepare(ctx, key, preparer, stmt.SQL)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare: %w", err)
	}
	return prepared, release, nil
}

func (e *Engine) diagnose(stmt *binder.Statement, bag binder.Bag) {
	if e.catalog != nil {
		names := make([]string, len(stmt.Bindings))
		types := make(map[string]schema.Type, len(stmt.Bindings))
		for i, b := range stmt.Bindings {
			names[i] = b.Name
			types[b.Name] = b.Type
		}
		for _, c := range e.catalog.Collisions(names...) {
			columns := make([]string, len(c.Columns))
			for i, col := range c.Columns {
				columns[i] = fmt.Sprintf("%s.%s(%s)",
					e.dialect.QuoteIdentifier(col.Table), e.dialect.QuoteIdentifier(col.Name), col.Type)
			}
			e.logger.Warn("parameter name matches columns of differing types",
				zap.String("parameter", c.Name),
				zap.Strings("columns", columns),
				zap.Stringer("bound_type", types[c.Name]))
		}
	}

	if ce := e.logger.Check(zap.DebugLevel, "bound statement"); ce != nil {
		params := make([]string, len(stmt.Bindings))
		for i, b := range stmt.Bindings {
			params[i] = fmt.Sprintf("@%s %s = %s", b.Name, b.Type, e.dialect.RenderValue(b.Value))
		}
		ce.Write(
			zap.String("dialect", e.dialect.Name()),
			zap.String("sql", stmt.SQL),
			zap.Strings("bindings", params),
			zap.Strings("unused", e.binder.Unused(bag, stmt.Bindings)))
	}
}
