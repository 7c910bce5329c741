package cache

import (
	"context"
	"database/sql"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Preparer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Preparer interface {
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// cachedStmt counts the callers currently running stmt. An evicted entry is
// closed once the last of them releases it.
type cachedStmt struct {
	stmt    *sql.Stmt
	refs    int
	evicted bool
}

// StatementCache is a size-bounded LRU of prepared statements. Statements
// handed out by GetOrPrepare stay open until released, even if evicted
// in the meantime.
type StatementCache struct {
	cache *lru.Cache[uint64, *cachedStmt]
	mu    sync.Mutex
}

func NewStatementCache(size int) (*StatementCache, error) {
	// The evict callback only runs from Add and Purge, both called under mu.
	cache, err := lru.NewWithEvict(size, func(_ uint64, entry *cachedStmt) {
		entry.evicted = true
		if entry.refs == 0 {
			_ = entry.stmt.Close()
		}
	})
	if err != nil {
		return nil, err
	}

	return &StatementCache{
		cache: cache,
	}, nil
}

// GetOrPrepare returns the statement cached under key, preparing query on a
// miss. The caller must call release once it is done with the statement.
func (s *StatementCache) GetOrPrepare(ctx context.Context, key uint64, db Preparer, query string) (*sql.Stmt, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache.Get(key)
	if !ok {
		stmt, err := db.PrepareContext(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		entry = &cachedStmt{stmt: stmt}
		s.cache.Add(key, entry)
	}

	entry.refs++
	var once sync.Once
	release := func() {
		once.Do(func() { s.release(entry) })
	}
	return entry.stmt, release, nil
}

func (s *StatementCache) release(entry *cachedStmt) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry.refs--
	if entry.evicted && entry.refs == 0 {
		_ = entry.stmt.Close()
	}
}

func (s *StatementCache) Len() int {
	return s.cache.Len()
}

// Close evicts every cached statement. Statements still held are closed on
// release.
func (s *StatementCache) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Purge()
	return nil
}
