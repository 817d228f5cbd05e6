package presenter

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/zap"
)

// applyTimeout bounds a single wallpaper-setter invocation
const applyTimeout = 10 * time.Second

// setter applies an image file to the desktop. Implementations are
// per-platform.
type setter interface {
	Apply(ctx context.Context, imagePath string) error
}

// DesktopPresenter renders records onto the OS desktop. Source swaps run
// asynchronously and report through the load feed; a desktop surface has
// no real crossfade, so Animate only honours the timing contract, and
// attribution/overlay values are logged for parity with richer surfaces.
type DesktopPresenter struct {
	logger    *zap.Logger
	setter    setter
	events    chan domain.LoadEvent
	tmpDir    string
	done      chan struct{}
	closeOnce sync.Once
}

// NewDesktopPresenter detects a platform setter and prepares the scratch
// directory used to materialise data URIs
func NewDesktopPresenter(logger *zap.Logger) (*DesktopPresenter, error) {
	s, err := newSetter(logger)
	if err != nil {
		return nil, err
	}
	tmpDir, err := os.MkdirTemp("", "walltab-presenter-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &DesktopPresenter{
		logger: logger,
		setter: s,
		events: make(chan domain.LoadEvent, 4),
		tmpDir: tmpDir,
		done:   make(chan struct{}),
	}, nil
}

// SetSource points the desktop at a new image and reports the outcome on
// the load feed
func (p *DesktopPresenter) SetSource(uri string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
		defer cancel()

		path, err := p.materialise(uri)
		if err == nil {
			err = p.setter.Apply(ctx, path)
		}

		status := domain.LoadOK
		if err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrLoad, err)
			p.logger.Warn("Failed to apply wallpaper", zap.Error(err))
			status = domain.LoadFailed
		}
		// The consumer may be gone after Close; never park here
		select {
		case p.events <- domain.LoadEvent{Status: status, URI: uri}:
		case <-p.done:
		}
	}()
}

// Events returns the load feed
func (p *DesktopPresenter) Events() <-chan domain.LoadEvent {
	return p.events
}

// Animate honours the fade timing contract. The desktop has no opacity
// channel, so the ramp is a context-aware wait.
func (p *DesktopPresenter) Animate(ctx context.Context, fromOpacity, toOpacity float64, d time.Duration) error {
	p.logger.Debug("Animating opacity",
		zap.Float64("from", fromOpacity),
		zap.Float64("to", toOpacity),
		zap.Duration("duration", d))

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetAttribution logs the credit; the desktop has no label surface
func (p *DesktopPresenter) SetAttribution(text, href string) {
	p.logger.Info("Wallpaper attribution", zap.String("text", text), zap.String("href", href))
}

// HideAttribution is a no-op on the desktop
func (p *DesktopPresenter) HideAttribution() {}

// SetOverlay logs the overlay values; compositing them needs a richer
// surface than a plain desktop setter
func (p *DesktopPresenter) SetOverlay(darken, blur float64) {
	p.logger.Debug("Overlay values", zap.Float64("darken", darken), zap.Float64("blur", blur))
}

// Close releases any in-flight load reports and removes the scratch
// directory
func (p *DesktopPresenter) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return os.RemoveAll(p.tmpDir)
}

// materialise returns a file path for uri: transient references already
// are paths, data URIs are decoded into the scratch directory
func (p *DesktopPresenter) materialise(uri string) (string, error) {
	if !strings.HasPrefix(uri, "data:") {
		return uri, nil
	}

	const marker = ";base64,"
	idx := strings.Index(uri, marker)
	if idx < 0 {
		return "", fmt.Errorf("unsupported data uri encoding")
	}
	payload, err := base64.StdEncoding.DecodeString(uri[idx+len(marker):])
	if err != nil {
		return "", fmt.Errorf("invalid data uri payload: %w", err)
	}

	path := filepath.Join(p.tmpDir, "current.img")
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return path, nil
}
