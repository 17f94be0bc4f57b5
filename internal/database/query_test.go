package database

import (
	"testing"

	"github.com/koustreak/dbchat/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectBuilder_PerEngine(t *testing.T) {
	tests := []struct {
		engine Engine
		want   string
	}{
		{EngineMSSQL, `SELECT TOP 10 [id], [name] FROM [dbo].[users] WHERE [active] = @p1 ORDER BY [id] DESC`},
		{EngineMySQL, "SELECT `id`, `name` FROM `dbo`.`users` WHERE `active` = ? ORDER BY `id` DESC LIMIT 10"},
		{EnginePostgreSQL, `SELECT "id", "name" FROM "dbo"."users" WHERE "active" = $1 ORDER BY "id" DESC LIMIT 10`},
		{EngineOracle, `SELECT "id", "name" FROM "dbo"."users" WHERE "active" = :1 ORDER BY "id" DESC FETCH FIRST 10 ROWS ONLY`},
		{EngineSnowflake, `SELECT "id", "name" FROM "dbo"."users" WHERE "active" = ? ORDER BY "id" DESC LIMIT 10`},
	}

	for _, tt := range tests {
		t.Run(tt.engine.String(), func(t *testing.T) {
			sql, args, err := Select(tt.engine, "dbo.users").
				Columns("id", "name").
				Where("active", "=", true).
				OrderBy("id", Desc).
				Limit(10).
				Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, sql)
			assert.Equal(t, []any{true}, args)
		})
	}
}

func TestSelectBuilder_Offset(t *testing.T) {
	sql, _, err := Select(EngineMSSQL, "orders").Limit(5).Offset(10).Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM [orders] ORDER BY (SELECT NULL) OFFSET 10 ROWS FETCH NEXT 5 ROWS ONLY", sql)

	sql, _, err = Select(EnginePostgreSQL, "orders").Limit(5).Offset(10).Build()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "orders" LIMIT 5 OFFSET 10`, sql)
}

func TestSelectBuilder_QuotesEmbeddedDelimiters(t *testing.T) {
	sql, _, err := Select(EngineMSSQL, "we]ird").Build()
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM [we]]ird]", sql)
}

func TestSelectBuilder_Rejects(t *testing.T) {
	_, _, err := Select(EngineMySQL, "users").Where("id", "; DROP", 1).Build()
	assert.True(t, errs.IsInvalidInput(err))

	_, _, err = Select(EngineMySQL, "").Build()
	assert.True(t, errs.IsInvalidInput(err))

	_, _, err = Select("DB2", "users").Build()
	assert.True(t, errs.IsInvalidInput(err))
}
