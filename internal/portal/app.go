// Package portal wires the persistence layer together: local cache,
// remote document store, auth session, gates and services. It owns
// process lifecycle (signals, shutdown) for the portal agent.
package portal

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dayhubapp/dayhub/internal/authgate"
	"github.com/dayhubapp/dayhub/internal/authn"
	"github.com/dayhubapp/dayhub/internal/blob"
	"github.com/dayhubapp/dayhub/internal/directory"
	"github.com/dayhubapp/dayhub/internal/docstore/postgres"
	"github.com/dayhubapp/dayhub/internal/feed"
	"github.com/dayhubapp/dayhub/internal/filex"
	"github.com/dayhubapp/dayhub/internal/localstore"
	"github.com/dayhubapp/dayhub/internal/logging"
	"github.com/dayhubapp/dayhub/internal/modstore"
	"github.com/dayhubapp/dayhub/internal/portal/config"
	"github.com/dayhubapp/dayhub/internal/settings"
	"github.com/dayhubapp/dayhub/internal/users"
)

type App struct {
	config *config.Config
	logger logging.Logger

	Auth      *authn.Session
	Gate      *authgate.Gate
	Modules   *modstore.Store
	Feed      *feed.Cache
	Profile   *users.ProfileService
	Directory *directory.Service
	Blobs     *blob.Service
	Settings  *settings.Manager

	remote *postgres.Store
	events chan modstore.SyncEvent

	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	dbPath, err := filex.EnsureParentDir(cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("local cache dir: %w", err)
	}

	local, localDB, err := localstore.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("local cache init: %w", err)
	}

	remote, err := postgres.Open(ctx, cfg.RemoteDSN)
	if err != nil {
		_ = localDB.Close()
		return nil, fmt.Errorf("remote store init: %w", err)
	}

	auth := authn.NewSession([]byte(cfg.TokenSecret))
	gate := authgate.NewGate(remote, cfg.AdminEmail, logger)
	gate.Watch(auth)

	events := make(chan modstore.SyncEvent, 64)
	modules := modstore.New(local, remote, gate, auth, logger, modstore.WithEvents(events))

	app := &App{
		config: cfg,
		logger: logger,

		Auth:      auth,
		Gate:      gate,
		Modules:   modules,
		Feed:      feed.NewCache(local, remote, logger),
		Profile:   users.NewProfileService(local, remote, auth, gate, logger),
		Directory: directory.NewService(remote, auth, gate, logger),
		Blobs: blob.NewService(blob.Config{
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			Bucket:       cfg.S3Bucket,
			BaseEndpoint: cfg.S3BaseEndpoint,
		}, auth, gate),
		Settings: settings.NewManager(local, modules, logger),

		remote: remote,
		events: events,
		closers: []func() error{
			localDB.Close,
			remote.Close,
		},
	}

	// Keep the remote profile in step with sign-ins.
	auth.Subscribe(func(identity *authn.Identity) {
		if identity == nil {
			return
		}
		if err := app.Profile.RecordSignIn(ctx, identity); err != nil {
			logger.Warn(ctx, "profile upsert on sign-in failed", "error", err)
		}
	})

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// drainSyncEvents logs the remote half of module writes so a sync-status
// indicator (or an operator) can observe outcomes the write path itself
// never blocks on. Failures are logged immediately; successes and skips
// are coalesced over the configured debounce window to keep a busy
// session from flooding the log.
func (app *App) drainSyncEvents(ctx context.Context) {
	debounce := app.config.SyncDebounce
	if debounce <= 0 {
		debounce = time.Second
	}

	var synced, skipped int
	timer := time.NewTimer(debounce)
	timer.Stop()

	flush := func() {
		if synced > 0 || skipped > 0 {
			app.logger.Debug(ctx, "module sync summary", "synced", synced, "skipped", skipped)
			synced, skipped = 0, 0
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-timer.C:
			flush()
		case ev := <-app.events:
			switch {
			case ev.Err != nil:
				app.logger.Warn(ctx, "module sync failed", "module", ev.Module, "error", ev.Err)
			case !ev.Attempted:
				skipped++
			default:
				synced++
			}
			if synced+skipped == 1 {
				timer.Reset(debounce)
			}
		}
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting portal agent")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.drainSyncEvents(ctx)
	}()

	wg.Wait()

	app.Close()
}

// Close releases both stores.
func (app *App) Close() {
	for _, close := range app.closers {
		if err := close(); err != nil {
			app.logger.Error(context.Background(), "shutdown error", "error", err)
		}
	}
}
