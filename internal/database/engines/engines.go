// Package engines wires every supported engine into a database.Registry.
package engines

import (
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/database/mssql"
	"github.com/koustreak/dbchat/internal/database/mysql"
	"github.com/koustreak/dbchat/internal/database/oracle"
	"github.com/koustreak/dbchat/internal/database/postgres"
	"github.com/koustreak/dbchat/internal/database/snowflake"
)

// Default returns a registry with all five engines sharing cfg.
func Default(cfg *database.Config, opts ...database.Option) *database.Registry {
	return database.NewRegistry().
		Register(database.EngineMSSQL, mssql.New(cfg, opts...)).
		Register(database.EngineMySQL, mysql.New(cfg, opts...)).
		Register(database.EnginePostgreSQL, postgres.New(cfg, opts...)).
		Register(database.EngineOracle, oracle.New(cfg, opts...)).
		Register(database.EngineSnowflake, snowflake.New(cfg, opts...))
}
