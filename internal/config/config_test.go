package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/koustreak/dbchat/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupMap(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dbchat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", lookupMap(nil))
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.MaxRows)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 30*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "AzureOpenAI", cfg.AI.DefaultProvider)
	assert.Equal(t, HistoryMemory, cfg.History.Backend)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Empty(t, cfg.Connections)
	assert.Equal(t, "Microsoft SQL Server", cfg.DialectName(database.EngineMSSQL))
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
max_rows: 25
dialects:
  MSSQL: T-SQL
database:
  connect_timeout: 3s
  query_timeout: 1m
ai:
  default_provider: ollama
  default_model: llama3
log:
  level: debug
  format: console
history:
  backend: sqlite
  sqlite_path: /tmp/h.db
connections:
  - name: warehouse
    engine: postgresql
    connection_string: postgres://u:p@localhost/wh
`)

	cfg, err := Load(path, lookupMap(nil))
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.MaxRows)
	assert.Equal(t, "T-SQL", cfg.DialectName(database.EngineMSSQL))
	assert.Equal(t, 3*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, time.Minute, cfg.Database.QueryTimeout)
	assert.Equal(t, "ollama", cfg.AI.DefaultProvider)
	assert.Equal(t, "llama3", cfg.AI.DefaultModel)
	assert.Equal(t, HistorySQLite, cfg.History.Backend)
	require.Len(t, cfg.Connections, 1)
	assert.Equal(t, database.EnginePostgreSQL, cfg.Connections[0].Engine, "engine names are normalized")

	lc := cfg.Logger()
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "console", lc.Format)
}

func TestLoadConfigPathFromEnv(t *testing.T) {
	path := writeFile(t, "max_rows: 7\n")

	cfg, err := Load("", lookupMap(map[string]string{"DBCHAT_CONFIG": path}))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxRows)
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeFile(t, ""), lookupMap(nil))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.MaxRows)
}

func TestLoadEnvOverrides(t *testing.T) {
	cfg, err := Load("", lookupMap(map[string]string{
		"MAX_ROWS":                 "50",
		"AZURE_OPENAI_ENDPOINT":    "https://example.openai.azure.com",
		"OPENAI_KEY":               "sk-test",
		"OLLAMA_ENDPOINT":          "http://gpu:11434",
		"GITHUB_MODELS_KEY":        "ghp_test",
		"AWS_REGION":               "eu-west-1",
		"DBCHAT_LOG_LEVEL":         "warn",
		"DBCHAT_ADDR":              "127.0.0.1:9090",
		"DATABASETYPE":             "MSSQL",
		"DATABASECONNECTIONSTRING": "sqlserver://sa:pw@localhost?database=master",
	}))
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.MaxRows)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9090", cfg.Server.Address)

	pc := cfg.Providers()
	assert.Equal(t, "https://example.openai.azure.com", pc.AzureOpenAIEndpoint)
	assert.Equal(t, "sk-test", pc.OpenAIKey)
	assert.Equal(t, "http://gpu:11434", pc.OllamaEndpoint)
	assert.Equal(t, "ghp_test", pc.GitHubModelsKey)
	assert.Equal(t, "eu-west-1", pc.BedrockRegion)

	require.Len(t, cfg.Connections, 1)
	assert.Equal(t, database.Connection{
		Name:             DefaultConnectionName,
		Engine:           database.EngineMSSQL,
		ConnectionString: "sqlserver://sa:pw@localhost?database=master",
	}, cfg.Connections[0])
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "bad int", env: map[string]string{"MAX_ROWS": "lots"}},
		{name: "zero rows", env: map[string]string{"MAX_ROWS": "0"}},
		{name: "bad duration", env: map[string]string{"DBCHAT_QUERY_TIMEOUT": "soon"}},
		{name: "bad bool", env: map[string]string{"DBCHAT_MINIO_USE_SSL": "maybe"}},
		{name: "bad provider", env: map[string]string{"DBCHAT_AI_PROVIDER": "Watson"}},
		{name: "bad log level", env: map[string]string{"DBCHAT_LOG_LEVEL": "loud"}},
		{name: "bad history backend", env: map[string]string{"DBCHAT_HISTORY_BACKEND": "redis"}},
		{name: "minio without endpoint", env: map[string]string{"DBCHAT_HISTORY_BACKEND": "minio"}},
		{name: "engine without dsn", env: map[string]string{"DATABASETYPE": "MYSQL"}},
		{name: "unknown engine", env: map[string]string{"DATABASETYPE": "DB2", "DATABASECONNECTIONSTRING": "x"}},
		{name: "unknown key", file: "max_row: 5\n"},
		{name: "duplicate connection", file: `
connections:
  - {name: a, engine: MYSQL, connection_string: "u@/db"}
  - {name: a, engine: MYSQL, connection_string: "u@/db2"}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := ""
			if tt.file != "" {
				path = writeFile(t, tt.file)
			}
			_, err := Load(path, lookupMap(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), lookupMap(nil))
	assert.Error(t, err)
}

func TestLoadRequiresLookup(t *testing.T) {
	_, err := Load("", nil)
	assert.Error(t, err)
}

func TestDatabaseSettings(t *testing.T) {
	cfg := Default()
	cfg.Database.QueryTimeout = 0

	dc := cfg.DatabaseSettings()
	assert.Equal(t, time.Duration(0), dc.QueryTimeout)
	assert.Equal(t, 10*time.Second, dc.ConnectTimeout)
	assert.Equal(t, 2, dc.MaxOpenConns)
}

func TestDialectNameFallsBackToEngine(t *testing.T) {
	cfg := Config{}
	assert.Equal(t, "ORACLE", cfg.DialectName(database.EngineOracle))
}
