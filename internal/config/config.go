// Package config loads dbchat settings from an optional YAML file and
// applies environment overrides on top.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/chat/providers"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/koustreak/dbchat/internal/logger"
	"go.yaml.in/yaml/v3"
)

// LookupFunc reads one environment variable.
type LookupFunc func(string) (string, bool)

// History backends.
const (
	HistoryMemory = "memory"
	HistorySQLite = "sqlite"
	HistoryMinIO  = "minio"
)

type Config struct {
	MaxRows     int                   `yaml:"max_rows"`
	Dialects    map[string]string     `yaml:"dialects"`
	Database    DatabaseConfig        `yaml:"database"`
	AI          AIConfig              `yaml:"ai"`
	Log         LogConfig             `yaml:"log"`
	Server      ServerConfig          `yaml:"server"`
	History     HistoryConfig         `yaml:"history"`
	Connections []database.Connection `yaml:"connections"`
}

type DatabaseConfig struct {
	ConnectTimeout  time.Duration `yaml:"connect_timeout"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type AIConfig struct {
	DefaultProvider       string `yaml:"default_provider"`
	DefaultModel          string `yaml:"default_model"`
	AzureOpenAIEndpoint   string `yaml:"azure_openai_endpoint"`
	AzureOpenAIAPIVersion string `yaml:"azure_openai_api_version"`
	OpenAIKey             string `yaml:"openai_key"`
	OpenAIBaseURL         string `yaml:"openai_base_url"`
	OllamaEndpoint        string `yaml:"ollama_endpoint"`
	GitHubModelsKey       string `yaml:"github_models_key"`
	GitHubModelsEndpoint  string `yaml:"github_models_endpoint"`
	BedrockRegion         string `yaml:"bedrock_region"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type HistoryConfig struct {
	Backend    string      `yaml:"backend"`
	SQLitePath string      `yaml:"sqlite_path"`
	MinIO      MinIOConfig `yaml:"minio"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
}

// DefaultDialects maps each engine to the name the model is told to write.
func DefaultDialects() map[string]string {
	return map[string]string{
		string(database.EngineMSSQL):      "Microsoft SQL Server",
		string(database.EngineMySQL):      "MySQL",
		string(database.EnginePostgreSQL): "PostgreSQL",
		string(database.EngineOracle):     "Oracle",
		string(database.EngineSnowflake):  "Snowflake",
	}
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	db := database.DefaultConfig()
	return Config{
		MaxRows:  100,
		Dialects: DefaultDialects(),
		Database: DatabaseConfig{
			ConnectTimeout:  db.ConnectTimeout,
			QueryTimeout:    db.QueryTimeout,
			MaxOpenConns:    db.MaxOpenConns,
			ConnMaxLifetime: db.ConnMaxLifetime,
		},
		AI: AIConfig{
			DefaultProvider: string(chat.ProviderAzureOpenAI),
			DefaultModel:    "gpt-4o",
			OllamaEndpoint:  "http://localhost:11434",
			BedrockRegion:   "us-east-1",
		},
		Log:    LogConfig{Level: "info", Format: "json"},
		Server: ServerConfig{Address: ":8080", ReadTimeout: 15 * time.Second, WriteTimeout: 120 * time.Second},
		History: HistoryConfig{
			Backend:    HistoryMemory,
			SQLitePath: "dbchat-history.db",
			MinIO:      MinIOConfig{Bucket: "dbchat-history"},
		},
	}
}

// LoadFromEnv loads the file named by DBCHAT_CONFIG (if any) and the
// process environment.
func LoadFromEnv() (Config, error) {
	return Load("", os.LookupEnv)
}

// Load reads path (or DBCHAT_CONFIG when path is empty) over the defaults,
// then applies environment overrides. A missing path is not an error when
// neither is set.
func Load(path string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := Default()

	if path == "" {
		if raw, ok := lookup("DBCHAT_CONFIG"); ok {
			path = strings.TrimSpace(raw)
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML into cfg. Keys absent from data keep their current
// values; unknown keys are rejected.
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document decodes to the defaults.
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config, lookup LookupFunc) error {
	if err := applyInt(lookup, "MAX_ROWS", &cfg.MaxRows); err != nil {
		return err
	}
	if err := applyDuration(lookup, "DBCHAT_CONNECT_TIMEOUT", &cfg.Database.ConnectTimeout); err != nil {
		return err
	}
	if err := applyDuration(lookup, "DBCHAT_QUERY_TIMEOUT", &cfg.Database.QueryTimeout); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_AI_PROVIDER", &cfg.AI.DefaultProvider); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_AI_MODEL", &cfg.AI.DefaultModel); err != nil {
		return err
	}
	if err := applyString(lookup, "AZURE_OPENAI_ENDPOINT", &cfg.AI.AzureOpenAIEndpoint); err != nil {
		return err
	}
	if err := applyString(lookup, "OPENAI_KEY", &cfg.AI.OpenAIKey); err != nil {
		return err
	}
	if err := applyString(lookup, "OLLAMA_ENDPOINT", &cfg.AI.OllamaEndpoint); err != nil {
		return err
	}
	if err := applyString(lookup, "GITHUB_MODELS_KEY", &cfg.AI.GitHubModelsKey); err != nil {
		return err
	}
	if err := applyString(lookup, "AWS_REGION", &cfg.AI.BedrockRegion); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_LOG_LEVEL", &cfg.Log.Level); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_LOG_FORMAT", &cfg.Log.Format); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_ADDR", &cfg.Server.Address); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_HISTORY_BACKEND", &cfg.History.Backend); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_HISTORY_SQLITE_PATH", &cfg.History.SQLitePath); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_MINIO_ENDPOINT", &cfg.History.MinIO.Endpoint); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_MINIO_ACCESS_KEY", &cfg.History.MinIO.AccessKey); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_MINIO_SECRET_KEY", &cfg.History.MinIO.SecretKey); err != nil {
		return err
	}
	if err := applyBool(lookup, "DBCHAT_MINIO_USE_SSL", &cfg.History.MinIO.UseSSL); err != nil {
		return err
	}
	if err := applyString(lookup, "DBCHAT_MINIO_BUCKET", &cfg.History.MinIO.Bucket); err != nil {
		return err
	}

	// A single connection supplied the way the MCP server is usually launched.
	engine, hasEngine := lookup("DATABASETYPE")
	dsn, hasDSN := lookup("DATABASECONNECTIONSTRING")
	if hasEngine || hasDSN {
		if !hasEngine || !hasDSN {
			return fmt.Errorf("DATABASETYPE and DATABASECONNECTIONSTRING must be set together")
		}
		cfg.Connections = append([]database.Connection{{
			Name:             DefaultConnectionName,
			Engine:           database.Engine(strings.TrimSpace(engine)),
			ConnectionString: strings.TrimSpace(dsn),
		}}, cfg.Connections...)
	}
	return nil
}

// DefaultConnectionName names the connection built from DATABASETYPE.
const DefaultConnectionName = "default"

// Validate checks the loaded values.
func (c *Config) Validate() error {
	if c.MaxRows <= 0 {
		return fmt.Errorf("max_rows must be > 0")
	}
	if _, err := chat.ParseProvider(c.AI.DefaultProvider); err != nil {
		return fmt.Errorf("invalid ai.default_provider: %q", c.AI.DefaultProvider)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}
	switch c.History.Backend {
	case HistoryMemory:
	case HistorySQLite:
		if strings.TrimSpace(c.History.SQLitePath) == "" {
			return fmt.Errorf("history.sqlite_path is required for the sqlite backend")
		}
	case HistoryMinIO:
		if c.History.MinIO.Endpoint == "" || c.History.MinIO.Bucket == "" {
			return fmt.Errorf("history.minio endpoint and bucket are required for the minio backend")
		}
	default:
		return fmt.Errorf("invalid history.backend: %q", c.History.Backend)
	}

	seen := make(map[string]bool, len(c.Connections))
	for i, conn := range c.Connections {
		if strings.TrimSpace(conn.Name) == "" {
			return fmt.Errorf("connections[%d]: name is required", i)
		}
		if seen[conn.Name] {
			return fmt.Errorf("connections[%d]: duplicate name %q", i, conn.Name)
		}
		seen[conn.Name] = true
		engine, err := database.ParseEngine(string(conn.Engine))
		if err != nil {
			return fmt.Errorf("connections[%d]: %w", i, err)
		}
		c.Connections[i].Engine = engine
	}
	return nil
}

// DialectName returns the dialect name the model is told to use for engine.
func (c *Config) DialectName(engine database.Engine) string {
	if name, ok := c.Dialects[strings.ToUpper(string(engine))]; ok && name != "" {
		return name
	}
	return string(engine)
}

// DatabaseSettings converts the database section into backend settings.
func (c *Config) DatabaseSettings() *database.Config {
	return &database.Config{
		ConnectTimeout:  c.Database.ConnectTimeout,
		QueryTimeout:    c.Database.QueryTimeout,
		MaxOpenConns:    c.Database.MaxOpenConns,
		ConnMaxLifetime: c.Database.ConnMaxLifetime,
	}
}

// Providers converts the ai section into chat factory settings.
func (c *Config) Providers() providers.Config {
	return providers.Config{
		AzureOpenAIEndpoint:   c.AI.AzureOpenAIEndpoint,
		AzureOpenAIAPIVersion: c.AI.AzureOpenAIAPIVersion,
		OpenAIKey:             c.AI.OpenAIKey,
		OpenAIBaseURL:         c.AI.OpenAIBaseURL,
		OllamaEndpoint:        c.AI.OllamaEndpoint,
		GitHubModelsKey:       c.AI.GitHubModelsKey,
		GitHubModelsEndpoint:  c.AI.GitHubModelsEndpoint,
		BedrockRegion:         c.AI.BedrockRegion,
	}
}

// Logger converts the log section into logger settings.
func (c *Config) Logger() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = strings.ToLower(c.Log.Level)
	lc.Format = c.Log.Format
	return lc
}

func applyString(lookup LookupFunc, key string, dst *string) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	*dst = strings.TrimSpace(raw)
	return nil
}

func applyInt(lookup LookupFunc, key string, dst *int) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}

func applyBool(lookup LookupFunc, key string, dst *bool) error {
	raw, ok := lookup(key)
	if !ok {
		return nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = v
	return nil
}
