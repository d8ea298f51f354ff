package dbquery

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cache is the interface for caching statement results.
// Users may implement it with their preferred caching solution
// (e.g., Redis, Memcached); MemoryCache is provided for in-process use.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns nil, nil if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with an optional TTL.
	// If ttl is 0, the value should not expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values with the given prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all values from the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies the cached result of a statement.
type CacheKey struct {
	Table     string
	Operation string
	Digest    string // hash of the SQL text and its arguments
}

// String returns the string representation of the cache key.
// Keys of one table share the "<table>:" prefix.
func (k CacheKey) String() string {
	return k.Table + ":" + k.Operation + ":" + k.Digest
}

// TablePrefix returns the prefix shared by all keys of the given table.
// Only the first word of a table expression is used, so "users u" and
// "users" share their keys.
func TablePrefix(table string) string {
	return TableName(table) + ":"
}

// StatementKey derives the cache key of a built statement under its base
// table. Arguments are msgpack encoded so that values of different types
// never collide.
func StatementKey(s *Statement) (CacheKey, error) {
	keys, err := StatementKeys(s)
	if err != nil {
		return CacheKey{}, err
	}
	return keys[0], nil
}

// StatementKeys derives one cache key per table of the statement, base
// table first. The keys differ only in their table prefix: a cached result
// is valid as long as all of them are present.
func StatementKeys(s *Statement) ([]CacheKey, error) {
	h := sha256.New()
	h.Write([]byte(s.SQL))
	enc := msgpack.NewEncoder(h)
	if err := enc.Encode(s.Args); err != nil {
		return nil, err
	}
	op := strings.ToLower(s.Op.String())
	if s.Count {
		op = "count"
	}
	digest := hex.EncodeToString(h.Sum(nil))
	tables := s.TableNames()
	if len(tables) == 0 {
		tables = []string{""}
	}
	keys := make([]CacheKey, len(tables))
	for i, table := range tables {
		keys[i] = CacheKey{Table: table, Operation: op, Digest: digest}
	}
	return keys, nil
}

// EncodeCount encodes a count result for storage in a Cache.
func EncodeCount(n int64) ([]byte, error) {
	return msgpack.Marshal(n)
}

// DecodeCount decodes a count result stored with EncodeCount.
func DecodeCount(b []byte) (int64, error) {
	var n int64
	err := msgpack.Unmarshal(b, &n)
	return n, err
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

// MemoryCache is an in-process Cache safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, nil
	}
	return e.value, nil
}

// Set implements Cache.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Delete implements Cache.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// DeletePrefix implements Cache.
func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Clear implements Cache.
func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

var _ Cache = (*MemoryCache)(nil)
