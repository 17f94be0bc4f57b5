package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/chat/providers"
	"github.com/koustreak/dbchat/internal/config"
	"github.com/koustreak/dbchat/internal/connection"
	"github.com/koustreak/dbchat/internal/database/engines"
	"github.com/koustreak/dbchat/internal/filestore"
	"github.com/koustreak/dbchat/internal/filestore/minio"
	"github.com/koustreak/dbchat/internal/history"
	"github.com/koustreak/dbchat/internal/logger"
	"github.com/koustreak/dbchat/internal/service"
)

// opener builds the app a command runs against.
type opener func(ctx context.Context, opts *globalOptions) (*app, error)

// app is everything one CLI invocation needs.
type app struct {
	cfg     config.Config
	log     *logger.Logger
	svc     *service.Service
	closers []io.Closer
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() error {
	var errList []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}

// openApp loads configuration and wires the real engines, chat factory,
// connection stores and history store.
func openApp(ctx context.Context, opts *globalOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath, os.LookupEnv)
	if err != nil {
		return nil, err
	}

	log := logger.New(cfg.Logger())
	logger.SetGlobal(log)

	a := &app{cfg: cfg, log: log}

	hist, err := openHistory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, hist)

	factory := providers.NewFactory(cfg.Providers())
	a.closers = append(a.closers, factory)

	// Validate has already checked the provider name.
	provider, _ := chat.ParseProvider(cfg.AI.DefaultProvider)

	a.svc = service.New(
		engines.Default(cfg.DatabaseSettings()),
		factory,
		service.WithConnections(openConnections(cfg, log)),
		service.WithHistory(hist),
		service.WithMaxRows(cfg.MaxRows),
		service.WithDialects(cfg.Dialects),
		service.WithDefaults(provider, cfg.AI.DefaultModel),
	)
	return a, nil
}

// openConnections chains the keychain (writable) in front of the
// connections named in config. Without a usable keychain, added
// connections live only for this process.
func openConnections(cfg config.Config, log *logger.Logger) connection.Store {
	var primary connection.Store
	ring, err := connection.OpenKeyring()
	if err != nil {
		log.Warnf("keychain unavailable, connections will not be saved: %v", err)
		primary = connection.NewMemoryStore()
	} else {
		primary = ring
	}
	return connection.Chain{primary, connection.NewStatic(cfg.Connections)}
}

func openHistory(ctx context.Context, cfg config.Config) (history.Store, error) {
	hc := cfg.History
	switch hc.Backend {
	case config.HistorySQLite:
		return history.OpenSQLite(hc.SQLitePath)
	case config.HistoryMinIO:
		fc := filestore.DefaultConfig(hc.MinIO.Endpoint, hc.MinIO.AccessKey, hc.MinIO.SecretKey, hc.MinIO.Bucket)
		fc.UseSSL = hc.MinIO.UseSSL
		fc.Region = hc.MinIO.Region
		store, err := minio.New(ctx, fc)
		if err != nil {
			return nil, err
		}
		return history.NewObjectStore(store), nil
	default:
		return history.NewMemoryStore(), nil
	}
}
