package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/walltab/walltab/internal/broadcast"
	"github.com/walltab/walltab/internal/config"
	"github.com/walltab/walltab/internal/display"
	"github.com/walltab/walltab/internal/domain"
	"github.com/walltab/walltab/internal/locale"
	"github.com/walltab/walltab/internal/notify"
	"github.com/walltab/walltab/internal/optimizer"
	"github.com/walltab/walltab/internal/presenter"
	"github.com/walltab/walltab/internal/screen"
	"github.com/walltab/walltab/internal/settings"
	"github.com/walltab/walltab/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AppOptions is the full dependency graph, exported so tests can validate
// it without starting the app
var AppOptions = fx.Options(
	fx.Provide(
		newLogger,
		config.NewAppConfig,
		screen.Detect,
		newProvider,
		newStore,
		optimizer.New,
		newTranslator,
		newNotifier,
		newBroadcaster,
		newPresenter,
		newBlobs,
		newController,
		settings.NewCoordinator,
	),
	fx.Invoke(registerHooks),
)

func main() {
	app := fx.New(
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		AppOptions,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		panic(err)
	}

	<-ctx.Done()

	if err := app.Stop(context.Background()); err != nil {
		panic(err)
	}
}

// newLogger creates a new zap logger instance
func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// newProvider opens the durable settings store
func newProvider(logger *zap.Logger, cfg *config.AppConfig) (domain.StorageProvider, error) {
	return storage.NewSQLiteProvider(logger, cfg.StoragePath)
}

// newStore wraps the provider under the default namespace
func newStore(logger *zap.Logger, provider domain.StorageProvider) *storage.Store {
	return storage.NewStore(logger, provider, "")
}

// newTranslator loads the configured locale table
func newTranslator(logger *zap.Logger, cfg *config.AppConfig) domain.Translator {
	return locale.NewTranslator(logger, cfg.Locale)
}

// newNotifier posts desktop notifications, degrading to log-only
func newNotifier(logger *zap.Logger) domain.Notifier {
	return notify.NewDesktopNotifier(logger)
}

// newBroadcaster prefers the session bus so concurrently running contexts
// converge; without one, broadcasts stay in-process
func newBroadcaster(logger *zap.Logger) domain.Broadcaster {
	bus, err := broadcast.NewSessionBus(logger)
	if err != nil {
		logger.Warn("Session bus unavailable, broadcasts stay in-process", zap.Error(err))
		return broadcast.NewLocalBus(logger)
	}
	return bus
}

// newPresenter drives the OS desktop
func newPresenter(logger *zap.Logger) (domain.Presenter, error) {
	return presenter.NewDesktopPresenter(logger)
}

// newBlobs materialises persisted wallpapers as transient references
func newBlobs(logger *zap.Logger, cfg *config.AppConfig) (display.BlobStore, error) {
	return display.NewBlobCache(logger, filepath.Join(cfg.CacheDir, "blobs"))
}

// closeAll closes every candidate that supports closing, aggregating the
// failures so one bad Close does not mask another. Candidates without a
// Close method (e.g. the in-process bus) are skipped.
func closeAll(candidates ...any) error {
	var err error
	for _, c := range candidates {
		if closer, ok := c.(io.Closer); ok {
			err = multierr.Append(err, closer.Close())
		}
	}
	return err
}

// newController wires the display controller, seeding its debug flag from
// the configuration
func newController(
	logger *zap.Logger,
	cfg *config.AppConfig,
	store *storage.Store,
	pres domain.Presenter,
	translator domain.Translator,
	bus domain.Broadcaster,
	blobs display.BlobStore,
	res *domain.ScreenResolution,
) *display.Controller {
	return display.NewController(logger, store, pres, translator, bus, blobs, res, cfg.Debug)
}

// registerHooks starts the display pipeline and tears everything down in
// reverse order: the controller first (releasing its transient
// references), then the presenter, blob store and bus, storage last
func registerHooks(
	lc fx.Lifecycle,
	logger *zap.Logger,
	provider domain.StorageProvider,
	pres domain.Presenter,
	blobs display.BlobStore,
	bus domain.Broadcaster,
	coordinator *settings.Coordinator,
	controller *display.Controller,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if _, err := coordinator.Load(ctx); err != nil {
				logger.Warn("Failed to load settings snapshot", zap.Error(err))
			}
			logger.Info("Walltab daemon started")
			return controller.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			if err := controller.Stop(ctx); err != nil {
				logger.Warn("Controller stop failed", zap.Error(err))
			}
			return multierr.Append(closeAll(pres, blobs, bus), provider.Close())
		},
	})
}
