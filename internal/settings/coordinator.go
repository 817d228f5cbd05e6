package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/walltab/walltab/internal/domain"
	"github.com/walltab/walltab/internal/optimizer"
	"github.com/walltab/walltab/internal/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// noticeTimeout is how long one-shot notifications stay up
const noticeTimeout = 3 * time.Second

// Coordinator turns user input from the options surface into optimizer
// calls and storage writes, and broadcasts a wallpaper-changed message so
// every running context refetches
type Coordinator struct {
	logger     *zap.Logger
	store      *storage.Store
	optimizer  *optimizer.Optimizer
	bus        domain.Broadcaster
	notifier   domain.Notifier
	translator domain.Translator
	res        *domain.ScreenResolution

	mu            sync.Mutex
	preview       string
	hasImage      bool
	overlayDarken string
	overlayBlur   string
}

// NewCoordinator wires a coordinator for the options surface
func NewCoordinator(
	logger *zap.Logger,
	store *storage.Store,
	opt *optimizer.Optimizer,
	bus domain.Broadcaster,
	notifier domain.Notifier,
	translator domain.Translator,
	res *domain.ScreenResolution,
) *Coordinator {
	return &Coordinator{
		logger:        logger,
		store:         store,
		optimizer:     opt,
		bus:           bus,
		notifier:      notifier,
		translator:    translator,
		res:           res,
		overlayDarken: domain.DefaultOverlayDarken,
		overlayBlur:   domain.DefaultOverlayBlur,
	}
}

// Load pulls the persisted settings into memory and returns the snapshot
// backing the options form. Unset overlay keys resolve to their defaults.
func (c *Coordinator) Load(ctx context.Context) (domain.Settings, error) {
	wallpaper, hasWallpaper, err := c.store.Get(ctx, domain.AreaLocal, domain.KeyUserWallpaper)
	if err != nil {
		return domain.Settings{}, err
	}

	darken, found, err := c.store.Get(ctx, domain.AreaLocal, domain.KeyOverlayDarken)
	if err != nil {
		return domain.Settings{}, err
	}
	if !found {
		darken = domain.DefaultOverlayDarken
	}

	blur, found, err := c.store.Get(ctx, domain.AreaLocal, domain.KeyOverlayBlur)
	if err != nil {
		return domain.Settings{}, err
	}
	if !found {
		blur = domain.DefaultOverlayBlur
	}

	c.mu.Lock()
	c.preview = wallpaper
	c.hasImage = hasWallpaper
	c.overlayDarken = darken
	c.overlayBlur = blur
	c.mu.Unlock()

	c.logger.Debug("Settings loaded",
		zap.Bool("hasWallpaper", hasWallpaper),
		zap.String("overlayDarken", darken),
		zap.String("overlayBlur", blur))

	return domain.Settings{
		Wallpaper:     wallpaper,
		HasWallpaper:  hasWallpaper,
		OverlayDarken: darken,
		OverlayBlur:   blur,
	}, nil
}

// OnFileSelected optimizes the uploaded file, updates the in-memory
// preview, persists the wallpaper key (and nothing else) and broadcasts.
// A decode failure is surfaced to the user and leaves both the preview and
// the persisted wallpaper untouched.
func (c *Coordinator) OnFileSelected(ctx context.Context, data []byte) error {
	size := int64(len(data))
	target := optimizer.TargetWidth(c.res.Width)

	var notice domain.Notice
	if size > optimizer.SizeThreshold {
		notice = c.notifier.Notify(c.translator.Translate("settingsMessageOptimize"), 0)
	}

	uri, err := c.optimizer.Prepare(ctx, data, size, target)
	if notice != nil {
		notice.Hide()
	}
	if err != nil {
		c.logger.Error("Failed to prepare image", zap.Error(err))
		c.notifier.Notify(c.translator.Translate("settingsErrorDecode"), noticeTimeout)
		return err
	}

	c.mu.Lock()
	c.preview = uri
	c.hasImage = true
	c.mu.Unlock()

	if err := c.store.Set(ctx, domain.AreaLocal, domain.KeyUserWallpaper, uri); err != nil {
		c.notifier.Notify(c.translator.Translate("settingsErrorStorage"), noticeTimeout)
		return err
	}
	return c.broadcast(ctx)
}

// OnOverlayOptionChanged persists exactly the changed overlay key. No
// broadcast: displays observe overlay keys independently.
func (c *Coordinator) OnOverlayOptionChanged(ctx context.Context, name, value string) error {
	c.mu.Lock()
	switch name {
	case domain.KeyOverlayDarken:
		c.overlayDarken = value
	case domain.KeyOverlayBlur:
		c.overlayBlur = value
	default:
		c.mu.Unlock()
		return fmt.Errorf("unknown overlay option %q", name)
	}
	c.mu.Unlock()

	if err := c.store.Set(ctx, domain.AreaLocal, name, value); err != nil {
		c.notifier.Notify(c.translator.Translate("settingsErrorStorage"), noticeTimeout)
		return err
	}
	return nil
}

// OnReset clears the preview, deletes the persisted wallpaper so the next
// display resolves the built-in default, and broadcasts
func (c *Coordinator) OnReset(ctx context.Context) error {
	c.mu.Lock()
	c.preview = ""
	c.hasImage = false
	c.mu.Unlock()

	if err := c.store.Delete(ctx, domain.AreaLocal, domain.KeyUserWallpaper); err != nil {
		c.notifier.Notify(c.translator.Translate("settingsErrorStorage"), noticeTimeout)
		return err
	}

	if err := c.broadcast(ctx); err != nil {
		return err
	}
	c.notifier.Notify(c.translator.Translate("settingsSaved"), noticeTimeout)
	return nil
}

// OnSubmit persists the in-memory form state (preview and darken overlay),
// broadcasts once and confirms to the user. Persist failures for the
// individual keys are aggregated so one failing write does not mask another.
func (c *Coordinator) OnSubmit(ctx context.Context) error {
	c.mu.Lock()
	preview := c.preview
	hasImage := c.hasImage
	darken := c.overlayDarken
	c.mu.Unlock()

	var err error
	if hasImage {
		err = multierr.Append(err,
			c.store.Set(ctx, domain.AreaLocal, domain.KeyUserWallpaper, preview))
	} else {
		err = multierr.Append(err,
			c.store.Delete(ctx, domain.AreaLocal, domain.KeyUserWallpaper))
	}
	err = multierr.Append(err,
		c.store.Set(ctx, domain.AreaLocal, domain.KeyOverlayDarken, darken))

	if err != nil {
		c.logger.Error("Failed to persist settings", zap.Error(err))
		c.notifier.Notify(c.translator.Translate("settingsErrorStorage"), noticeTimeout)
		return err
	}

	if err := c.broadcast(ctx); err != nil {
		return err
	}
	c.notifier.Notify(c.translator.Translate("settingsSaved"), noticeTimeout)
	return nil
}

func (c *Coordinator) broadcast(ctx context.Context) error {
	if err := c.bus.Broadcast(ctx, domain.Message{Action: domain.ActionNewWallpaper}); err != nil {
		return fmt.Errorf("failed to broadcast wallpaper change: %w", err)
	}
	return nil
}
