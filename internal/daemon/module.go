// Package daemon composes the Quiet Send core into a running process.
package daemon

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/joshnesbit/quietsend/internal/bus"
	"github.com/joshnesbit/quietsend/internal/config"
	"github.com/joshnesbit/quietsend/internal/contacts"
	"github.com/joshnesbit/quietsend/internal/digest"
	"github.com/joshnesbit/quietsend/internal/httpapi"
	"github.com/joshnesbit/quietsend/internal/kv"
	"github.com/joshnesbit/quietsend/internal/links"
	"github.com/joshnesbit/quietsend/internal/lock"
	"github.com/joshnesbit/quietsend/internal/logging"
	"github.com/joshnesbit/quietsend/internal/notify"
	"github.com/joshnesbit/quietsend/internal/paths"
	"github.com/joshnesbit/quietsend/internal/prefs"
)

// Params holds the resolved startup options passed to the fx module.
type Params struct {
	ConfigPath string // empty = <data dir>/config.toml
	Listen     string // optional override of the config value
	DataDir    string // optional override of the config value
}

// Module returns the fx module for the daemon, composing all providers and
// lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("daemon",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideDataDir,
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideNotifier,
			provideRegistry,
			provideQueue,
			providePrefs,
			provideScheduler,
			provideHandlers,
			provideServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

// dataDir is a named string so fx can tell it apart from other strings.
type dataDir string

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		base := p.DataDir
		if base == "" {
			base = paths.Base()
		}
		path = paths.Config(base)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if p.Listen != "" {
		cfg.Listen = p.Listen
	}
	if p.DataDir != "" {
		cfg.DataDir = p.DataDir
	}
	return cfg, nil
}

func provideDataDir(cfg *config.Config) (dataDir, error) {
	dir := cfg.DataDir
	if dir == "" {
		dir = paths.Base()
	}
	if err := paths.EnsureDirs(dir); err != nil {
		return "", err
	}
	return dataDir(dir), nil
}

func provideLogger(dir dataDir) (*zap.Logger, error) {
	return logging.New(paths.Log(string(dir)))
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(dir dataDir, logger *zap.Logger) (*lock.Lock, error) {
	l, err := lock.Acquire(string(dir))
	if err != nil {
		return nil, err
	}
	logger.Info("data dir lock acquired", zap.String("dir", string(dir)))
	return l, nil
}

func provideStore(dir dataDir, _ *lock.Lock, logger *zap.Logger) (*kv.Store, error) {
	dbPath := paths.DB(string(dir))
	store, err := kv.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := store.Migrate()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return store, nil
}

func provideNotifier(logger *zap.Logger) notify.Notifier {
	return notify.NewLogNotifier(logger)
}

func provideRegistry(store *kv.Store, n notify.Notifier, b *bus.Bus, logger *zap.Logger) *contacts.Registry {
	return contacts.NewRegistry(store, n, b, logger)
}

func provideQueue(store *kv.Store, r *contacts.Registry, b *bus.Bus, logger *zap.Logger) *links.Queue {
	return links.NewQueue(store, r, b, logger)
}

func providePrefs(store *kv.Store, b *bus.Bus, logger *zap.Logger) *prefs.Store {
	return prefs.NewStore(store, b, logger)
}

func provideScheduler(q *links.Queue, r *contacts.Registry, n notify.Notifier, b *bus.Bus, logger *zap.Logger) *digest.Scheduler {
	return digest.NewScheduler(q, r, n, b, logger)
}

func provideHandlers(r *contacts.Registry, q *links.Queue, p *prefs.Store, d *digest.Scheduler, b *bus.Bus, logger *zap.Logger) *httpapi.Handlers {
	return httpapi.NewHandlers(r, q, p, d, b, logger)
}

func provideServer(cfg *config.Config, h *httpapi.Handlers, logger *zap.Logger) *httpapi.Server {
	return httpapi.New(cfg.Listen, h, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *httpapi.Server, sched *digest.Scheduler, store *kv.Store, lk *lock.Lock, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			sched.Start(context.Background())

			go func() {
				if err := srv.Start(); err != nil {
					logger.Error("http server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			sched.Stop()
			if err := srv.Stop(ctx); err != nil {
				logger.Warn("error stopping http server", zap.Error(err))
			}
			if err := store.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("daemon stopped")
			return nil
		},
	})
}
