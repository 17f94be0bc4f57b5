package database

import (
	"strings"
	"time"

	"github.com/koustreak/dbchat/internal/errs"
)

// Engine identifies the database engine a connection targets.
type Engine string

const (
	EngineMSSQL      Engine = "MSSQL"
	EngineMySQL      Engine = "MYSQL"
	EnginePostgreSQL Engine = "POSTGRESQL"
	EngineOracle     Engine = "ORACLE"
	EngineSnowflake  Engine = "SNOWFLAKE"
)

// AllEngines returns every supported engine in a stable order.
func AllEngines() []Engine {
	return []Engine{EngineMSSQL, EngineMySQL, EnginePostgreSQL, EngineOracle, EngineSnowflake}
}

func (e Engine) String() string { return string(e) }

// ParseEngine resolves a case-insensitive engine name such as "postgresql".
func ParseEngine(s string) (Engine, error) {
	want := strings.ToUpper(strings.TrimSpace(s))
	for _, e := range AllEngines() {
		if string(e) == want {
			return e, nil
		}
	}
	return Engine(want), errs.Newf(errs.ErrKindUnsupported, "unsupported engine %q", s)
}

// Connection is a named connection string for one engine. It is passed by
// value on every call and never retained by a backend.
type Connection struct {
	Name             string `json:"name" yaml:"name"`
	ConnectionString string `json:"connectionString" yaml:"connection_string"`
	Engine           Engine `json:"engine" yaml:"engine"`
}

// Config holds the settings shared by every engine backend.
type Config struct {
	// Timeouts. Zero or negative disables the bound.
	ConnectTimeout time.Duration // time limit for open + ping
	QueryTimeout   time.Duration // per-statement deadline

	// Pool tuning for the short-lived per-call *sql.DB
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		ConnectTimeout:  10 * time.Second,
		QueryTimeout:    30 * time.Second,
		MaxOpenConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}
