package display

import (
	"context"
	"strconv"
	"time"

	"github.com/walltab/walltab/internal/domain"
	"github.com/walltab/walltab/internal/storage"
	"go.uber.org/zap"
)

// Asymmetric fade durations: the fade-out is fast and the fade-in slow, so
// the screen is never blank longer than necessary
const (
	AnimationFast = 100 * time.Millisecond
	AnimationSlow = 250 * time.Millisecond
)

// Keys retired by earlier releases, removed on first activation
var legacyKeys = []string{"lastImage", "currentImage", "nextUpdate"}

// state tracks where the controller is in its display cycle
type state int

const (
	// stateUninitialized means nothing has been shown yet; the first
	// render skips the fade-out because there is no image to fade from
	stateUninitialized state = iota
	// stateIdle means a record is displayed and no transition is running
	stateIdle
	// stateTransitioning means a fade cycle is in flight
	stateTransitioning
)

// Controller sequences wallpaper swaps on a presentation surface: resolve
// record, fade out, swap, wait for load, fade in, release the superseded
// transient reference. At most one transition runs at a time; requests
// arriving mid-transition are coalesced, keeping only the most recent.
type Controller struct {
	logger     *zap.Logger
	store      *storage.Store
	presenter  domain.Presenter
	translator domain.Translator
	bus        domain.Broadcaster
	blobs      BlobStore
	res        *domain.ScreenResolution

	// requests is a latest-wins slot: capacity one, displaced entries
	// are released and dropped
	requests chan domain.WallpaperRecord

	fallback domain.WallpaperRecord
	cancel   context.CancelFunc
	done     chan struct{}
	debug    bool

	// Owned by the run goroutine
	state   state
	current domain.WallpaperRecord
}

// NewController wires a controller; call Start to activate it. debug
// forces verbose display logging on top of whatever the stored debug
// key says.
func NewController(
	logger *zap.Logger,
	store *storage.Store,
	presenter domain.Presenter,
	translator domain.Translator,
	bus domain.Broadcaster,
	blobs BlobStore,
	res *domain.ScreenResolution,
	debug bool,
) *Controller {
	return &Controller{
		logger:     logger,
		store:      store,
		presenter:  presenter,
		translator: translator,
		bus:        bus,
		blobs:      blobs,
		res:        res,
		requests:   make(chan domain.WallpaperRecord, 1),
		debug:      debug,
	}
}

// Start activates the controller: builds the built-in default, cleans up
// retired keys, subscribes to broadcasts and overlay changes, launches the
// transition loop and queues the initial render.
func (c *Controller) Start(ctx context.Context) error {
	c.fallback = buildFallback(c.res.Width, c.res.Height)

	if value, found, err := c.store.Get(ctx, domain.AreaLocal, domain.KeyDebug); err == nil && found {
		c.debug = c.debug || (value != "" && value != "false")
	}
	c.cleanupLegacyKeys(ctx)

	c.bus.Subscribe(func(msg domain.Message) {
		if msg.Action == domain.ActionNewWallpaper {
			c.Refresh(context.Background())
		}
	})

	// Overlay keys are observed independently of wallpaper swaps
	reapply := func(domain.ChangeEvent) { c.applyOverlay(context.Background()) }
	c.store.Subscribe(domain.AreaLocal, domain.KeyOverlayDarken, reapply)
	c.store.Subscribe(domain.AreaLocal, domain.KeyOverlayBlur, reapply)

	runCtx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.done = make(chan struct{})
	go c.run(runCtx)

	c.logger.Info("Display controller started")
	c.Refresh(ctx)
	return nil
}

// Stop halts the transition loop and waits for its cleanup, so every
// transient reference is released before the blob store shuts down
func (c *Controller) Stop(ctx context.Context) error {
	if c.cancel != nil {
		c.cancel()
		select {
		case <-c.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.logger.Info("Display controller stopped")
	return nil
}

// Refresh resolves the record to show and queues a replace. Resolution
// failures leave the currently displayed image in place.
func (c *Controller) Refresh(ctx context.Context) {
	rec, err := c.resolve(ctx)
	if err != nil {
		c.logger.Error("Failed to resolve wallpaper, keeping current image", zap.Error(err))
		return
	}
	c.enqueue(rec)
}

// resolve builds the next record: the persisted wallpaper materialised as
// a transient reference, or the built-in default when nothing is persisted
func (c *Controller) resolve(ctx context.Context) (domain.WallpaperRecord, error) {
	value, found, err := c.store.Get(ctx, domain.AreaLocal, domain.KeyUserWallpaper)
	if err != nil {
		return domain.WallpaperRecord{}, err
	}
	if !found || value == "" {
		if c.debug {
			c.logger.Debug("No persisted wallpaper, using default record")
		}
		return c.fallback, nil
	}

	ref, err := c.blobs.Create(value)
	if err != nil {
		return domain.WallpaperRecord{}, err
	}
	return domain.WallpaperRecord{Image: ref, TransientRef: true}, nil
}

// enqueue hands a record to the run loop, superseding any queued request
// that has not started. A displaced transient record is released here; the
// presentation layer has never seen it.
func (c *Controller) enqueue(rec domain.WallpaperRecord) {
	for {
		select {
		case c.requests <- rec:
			return
		default:
		}
		select {
		case stale := <-c.requests:
			c.releaseTransient(stale)
		default:
		}
	}
}

// run drives transitions one at a time. A load failure of the currently
// displayed image re-enters through enqueue as a regular replace request
// carrying the default record.
func (c *Controller) run(ctx context.Context) {
	defer c.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-c.requests:
			c.transition(ctx, rec)
		case ev, ok := <-c.presenter.Events():
			if !ok {
				return
			}
			if ev.Status == domain.LoadFailed {
				c.logger.Warn("Displayed image failed to render, falling back",
					zap.String("uri", ev.URI))
				c.enqueue(c.fallback)
			}
		}
	}
}

// transition runs one full fade-out / swap / fade-in / cleanup cycle
func (c *Controller) transition(ctx context.Context, rec domain.WallpaperRecord) {
	if !rec.Usable() {
		c.logger.Warn("Record has no usable image, keeping current wallpaper")
		c.releaseTransient(rec)
		return
	}

	c.applyOverlay(ctx)

	if c.state != stateUninitialized {
		if err := c.presenter.Animate(ctx, 1, 0, AnimationFast); err != nil {
			c.logger.Warn("Fade-out interrupted", zap.Error(err))
		}
	}
	c.state = stateTransitioning

	c.presenter.SetSource(rec.Image)
	c.updateAttribution(rec)

	if !c.awaitLoad(ctx, rec.Image) {
		// The new image never became ready. Keep what is on screen,
		// release the dead record and fall back unless this already
		// was the default.
		c.releaseTransient(rec)
		c.state = stateIdle
		if rec.Image != c.fallback.Image {
			c.logger.Warn("New image failed to load, falling back to default")
			c.enqueue(c.fallback)
		}
		return
	}

	if err := c.presenter.Animate(ctx, 0, 1, AnimationSlow); err != nil {
		c.logger.Warn("Fade-in interrupted", zap.Error(err))
	}

	// Cleanup comes only after the fade-in: releasing earlier risks the
	// surface re-requesting a dead reference mid-crossfade
	prev := c.current
	c.current = rec
	c.state = stateIdle
	c.releaseTransient(prev)

	if c.debug {
		c.logger.Debug("Transition complete", zap.String("image", rec.Image))
	}
}

// awaitLoad blocks until the surface reports an outcome for uri. Stale
// events from superseded sources are ignored.
func (c *Controller) awaitLoad(ctx context.Context, uri string) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case ev, ok := <-c.presenter.Events():
			if !ok {
				return false
			}
			if ev.URI != uri {
				continue
			}
			return ev.Status == domain.LoadOK
		}
	}
}

// updateAttribution applies the label rules: hidden without author and
// link, a generic sources label for a bare link, an author credit
// otherwise, linking to the credits page when the record has no link
func (c *Controller) updateAttribution(rec domain.WallpaperRecord) {
	switch {
	case rec.Author == "" && rec.Link == "":
		c.presenter.HideAttribution()
	case rec.Author == "":
		c.presenter.SetAttribution(c.translator.Translate("ntpSourcesText"), rec.Link)
	default:
		link := rec.Link
		if link == "" {
			link = domain.CreditsLink
		}
		c.presenter.SetAttribution(
			c.translator.Translate("ntpCopyrightAuthor")+rec.Author, link)
	}
}

// applyOverlay pushes the persisted overlay values to the surface.
// Unset keys fall back to the defaults; read errors only log.
func (c *Controller) applyOverlay(ctx context.Context) {
	darken := c.readFloat(ctx, domain.KeyOverlayDarken, domain.DefaultOverlayDarken)
	blur := c.readFloat(ctx, domain.KeyOverlayBlur, domain.DefaultOverlayBlur)
	c.presenter.SetOverlay(darken, blur)
}

func (c *Controller) readFloat(ctx context.Context, key, fallback string) float64 {
	value, found, err := c.store.Get(ctx, domain.AreaLocal, key)
	if err != nil {
		c.logger.Warn("Failed to read overlay setting", zap.String("key", key), zap.Error(err))
		value = fallback
	} else if !found || value == "" {
		value = fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		c.logger.Warn("Invalid overlay value", zap.String("key", key), zap.String("value", value))
		f, _ = strconv.ParseFloat(fallback, 64)
	}
	return f
}

// shutdown releases the displayed record and everything still queued.
// Runs on the loop goroutine after it has stopped consuming, so no
// transition can race the releases.
func (c *Controller) shutdown() {
	if c.done != nil {
		defer close(c.done)
	}
	for {
		select {
		case rec := <-c.requests:
			c.releaseTransient(rec)
		default:
			c.releaseTransient(c.current)
			c.current = domain.WallpaperRecord{}
			return
		}
	}
}

// releaseTransient releases rec's reference if it holds one
func (c *Controller) releaseTransient(rec domain.WallpaperRecord) {
	if !rec.TransientRef {
		return
	}
	if err := c.blobs.Release(rec.Image); err != nil {
		c.logger.Warn("Failed to release transient reference",
			zap.String("ref", rec.Image), zap.Error(err))
	}
}

// cleanupLegacyKeys removes keys written by retired revisions
func (c *Controller) cleanupLegacyKeys(ctx context.Context) {
	for _, key := range legacyKeys {
		if err := c.store.Delete(ctx, domain.AreaLocal, key); err != nil {
			c.logger.Debug("Legacy key cleanup skipped", zap.String("key", key), zap.Error(err))
		}
	}
}
