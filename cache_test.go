package dbquery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	v, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, c.Set(ctx, "users:count:a", []byte("1"), time.Minute))
	require.NoError(t, c.Set(ctx, "users:count:b", []byte("2"), 0))
	require.NoError(t, c.Set(ctx, "pets:count:a", []byte("3"), 0))
	assert.Equal(t, 3, c.Len())

	v, err = c.Get(ctx, "users:count:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	// Expired entries are evicted on access.
	now = now.Add(time.Minute)
	v, err = c.Get(ctx, "users:count:a")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Equal(t, 2, c.Len())

	// Entries without a ttl never expire.
	now = now.Add(24 * time.Hour)
	v, err = c.Get(ctx, "users:count:b")
	require.NoError(t, err)
	assert.Equal(t, []byte("2"), v)

	require.NoError(t, c.DeletePrefix(ctx, "users:"))
	assert.Equal(t, 1, c.Len())
	require.NoError(t, c.Delete(ctx, "pets:count:a"))
	assert.Zero(t, c.Len())

	require.NoError(t, c.Set(ctx, "a", []byte("x"), 0))
	require.NoError(t, c.Clear(ctx))
	assert.Zero(t, c.Len())
}

func TestStatementKey(t *testing.T) {
	stmt := &Statement{
		Op:    OpSelect,
		Table: "users u",
		SQL:   "select count(*) as stat from users u where (age > ?)",
		Args:  []any{18},
		Count: true,
	}
	key, err := StatementKey(stmt)
	require.NoError(t, err)
	assert.Equal(t, "users", key.Table)
	assert.Equal(t, "count", key.Operation)
	assert.Len(t, key.Digest, 64)
	assert.True(t, len(key.String()) > len(TablePrefix("users")))
	assert.Equal(t, TablePrefix("users u"), key.String()[:len("users:")])

	same, err := StatementKey(&Statement{Op: OpSelect, Table: "users u", SQL: stmt.SQL, Args: []any{18}, Count: true})
	require.NoError(t, err)
	assert.Equal(t, key, same)

	// Same text with a differently typed argument.
	other, err := StatementKey(&Statement{Op: OpSelect, Table: "users", SQL: stmt.SQL, Args: []any{"18"}, Count: true})
	require.NoError(t, err)
	assert.NotEqual(t, key.Digest, other.Digest)

	sel, err := StatementKey(&Statement{Op: OpSelect, Table: "users", SQL: "select * from users"})
	require.NoError(t, err)
	assert.Equal(t, "select", sel.Operation)
}

func TestEncodeCount(t *testing.T) {
	for _, n := range []int64{0, 1, 42, 1 << 40} {
		b, err := EncodeCount(n)
		require.NoError(t, err)
		got, err := DecodeCount(b)
		require.NoError(t, err)
		assert.Equal(t, n, got)
	}
	_, err := DecodeCount([]byte{0xc1})
	assert.Error(t, err)
}

func TestStatementKeys(t *testing.T) {
	stmt := &Statement{
		Op:     OpSelect,
		Table:  "users u",
		Tables: []string{"users", "pets"},
		SQL:    "select count(*) as stat from users u inner join pets p on p.owner_id = u.id",
		Args:   []any{},
		Count:  true,
	}
	keys, err := StatementKeys(stmt)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "users", keys[0].Table)
	assert.Equal(t, "pets", keys[1].Table)
	assert.Equal(t, keys[0].Digest, keys[1].Digest)
	assert.True(t, strings.HasPrefix(keys[1].String(), TablePrefix("pets p")))

	base, err := StatementKey(stmt)
	require.NoError(t, err)
	assert.Equal(t, keys[0], base)
}

func TestStatement_TableNames(t *testing.T) {
	assert.Equal(t, []string{"users"}, (&Statement{Table: "users u"}).TableNames())
	assert.Equal(t, []string{"users", "pets"}, (&Statement{Table: "users u", Tables: []string{"users", "pets"}}).TableNames())
	assert.Empty(t, (&Statement{}).TableNames())
	assert.Equal(t, "secrets", TableName("  secrets   s "))
	assert.Empty(t, TableName(""))
}
