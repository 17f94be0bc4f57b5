package connection

import (
	"context"
	"testing"

	"github.com/99designs/keyring"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	warehouse = database.Connection{Name: "warehouse", Engine: database.EnginePostgreSQL, ConnectionString: "postgres://localhost/wh"}
	shop      = database.Connection{Name: "shop", Engine: database.EngineMySQL, ConnectionString: "u:p@tcp(localhost)/shop"}
)

// exerciseStore runs the behaviour every writable store shares.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()

	conns, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, conns)

	require.NoError(t, s.Add(ctx, warehouse))
	require.NoError(t, s.Add(ctx, database.Connection{Name: "shop", Engine: "mysql", ConnectionString: shop.ConnectionString}))

	got, err := s.Get(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, shop, got, "engine is normalized on add")

	conns, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []database.Connection{shop, warehouse}, conns)

	require.NoError(t, s.Delete(ctx, "shop"))
	_, err = s.Get(ctx, "shop")
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errs.IsNotFound(s.Delete(ctx, "shop")))

	assert.True(t, errs.IsInvalidInput(s.Add(ctx, database.Connection{Engine: database.EngineMySQL, ConnectionString: "x"})))
	assert.True(t, errs.IsInvalidInput(s.Add(ctx, database.Connection{Name: "x", Engine: database.EngineMySQL})))
	assert.True(t, errs.IsUnsupported(s.Add(ctx, database.Connection{Name: "x", Engine: "DB2", ConnectionString: "x"})))
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestKeyringStore(t *testing.T) {
	exerciseStore(t, NewKeyringStore(keyring.NewArrayKeyring(nil)))
}

func TestKeyringStore_IgnoresForeignKeys(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: "access-token", Data: []byte("secret")}})
	s := NewKeyringStore(ring)
	require.NoError(t, s.Add(context.Background(), warehouse))

	conns, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []database.Connection{warehouse}, conns)
}

func TestKeyringStore_CorruptItem(t *testing.T) {
	ring := keyring.NewArrayKeyring([]keyring.Item{{Key: keyPrefix + "bad", Data: []byte("{")}})
	_, err := NewKeyringStore(ring).Get(context.Background(), "bad")
	assert.True(t, errs.IsInvalidInput(err))
}

func TestStatic(t *testing.T) {
	ctx := context.Background()
	s := NewStatic([]database.Connection{warehouse})

	got, err := s.Get(ctx, "warehouse")
	require.NoError(t, err)
	assert.Equal(t, warehouse, got)

	assert.True(t, errs.IsUnsupported(s.Add(ctx, shop)))
	assert.True(t, errs.IsUnsupported(s.Delete(ctx, "warehouse")))
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	override := database.Connection{Name: "warehouse", Engine: database.EngineSnowflake, ConnectionString: "u:p@acct/WH"}

	mem := NewMemoryStore(override)
	chain := Chain{mem, NewStatic([]database.Connection{warehouse, shop})}

	conns, err := chain.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []database.Connection{shop, override}, conns)

	got, err := chain.Get(ctx, "shop")
	require.NoError(t, err)
	assert.Equal(t, shop, got)

	_, err = chain.Get(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))

	extra := database.Connection{Name: "extra", Engine: database.EngineOracle, ConnectionString: "oracle://u:p@h/s"}
	require.NoError(t, chain.Add(ctx, extra))
	_, err = mem.Get(ctx, "extra")
	require.NoError(t, err)

	require.NoError(t, chain.Delete(ctx, "extra"))
	assert.True(t, errs.IsUnsupported(chain.Delete(ctx, "shop")), "static entries cannot be removed")
	assert.True(t, errs.IsNotFound(chain.Delete(ctx, "missing")))
}
