package settings

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/walltab/walltab/internal/broadcast"
	"github.com/walltab/walltab/internal/domain"
	"github.com/walltab/walltab/internal/optimizer"
	"github.com/walltab/walltab/internal/storage"
	"go.uber.org/zap"
)

// notice records whether Hide was called
type notice struct {
	mu     sync.Mutex
	hidden bool
}

func (n *notice) Hide() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hidden = true
}

// fakeNotifier records posted notifications
type fakeNotifier struct {
	mu      sync.Mutex
	posted  []string
	notices []*notice
}

func (f *fakeNotifier) Notify(text string, timeout time.Duration) domain.Notice {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posted = append(f.posted, text)
	n := &notice{}
	f.notices = append(f.notices, n)
	return n
}

func (f *fakeNotifier) texts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.posted))
	copy(out, f.posted)
	return out
}

type fakeTranslator struct{}

func (fakeTranslator) Translate(key string, _ ...string) string { return key }

type harness struct {
	coordinator *Coordinator
	store       *storage.Store
	provider    *storage.MemoryProvider
	notifier    *fakeNotifier
	broadcasts  int
	mu          sync.Mutex
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	provider := storage.NewMemoryProvider(logger)
	store := storage.NewStore(logger, provider, "")
	bus := broadcast.NewLocalBus(logger)
	notifier := &fakeNotifier{}

	h := &harness{store: store, provider: provider, notifier: notifier}
	bus.Subscribe(func(msg domain.Message) {
		if msg.Action == domain.ActionNewWallpaper {
			h.mu.Lock()
			h.broadcasts++
			h.mu.Unlock()
		}
	})

	h.coordinator = NewCoordinator(logger, store, optimizer.New(logger), bus, notifier,
		fakeTranslator{}, &domain.ScreenResolution{Width: 1920, Height: 1080})
	return h
}

func (h *harness) broadcastCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.broadcasts
}

func (h *harness) get(t *testing.T, key string) (string, bool) {
	t.Helper()
	value, found, err := h.store.Get(context.Background(), domain.AreaLocal, key)
	if err != nil {
		t.Fatalf("get %q failed: %v", key, err)
	}
	return value, found
}

func smallJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 120, B: 200, A: 255})
		}
	}
	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("failed to encode test jpeg: %v", err)
	}
	return buf.Bytes()
}

// largeJPEG pads a decodable JPEG past the embedding threshold; decoders
// ignore trailing bytes after the end-of-image marker
func largeJPEG(t *testing.T) []byte {
	t.Helper()
	data := smallJPEG(t)
	pad := make([]byte, optimizer.SizeThreshold)
	return append(data, pad...)
}

func TestCoordinator_FileSelectedPersistsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if err := h.coordinator.OnFileSelected(ctx, smallJPEG(t)); err != nil {
		t.Fatalf("file selection failed: %v", err)
	}

	value, found := h.get(t, domain.KeyUserWallpaper)
	if !found || !strings.HasPrefix(value, "data:image/jpeg;base64,") {
		t.Errorf("expected persisted data uri, got found=%v %.40q", found, value)
	}
	if _, found := h.get(t, domain.KeyOverlayDarken); found {
		t.Error("file selection must not touch overlay keys")
	}
	if h.broadcastCount() != 1 {
		t.Errorf("expected exactly 1 broadcast, got %d", h.broadcastCount())
	}
	if got := h.notifier.texts(); len(got) != 0 {
		t.Errorf("small file must not raise notices, got %v", got)
	}
}

func TestCoordinator_LargeFileShowsOptimizeNotice(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if err := h.coordinator.OnFileSelected(ctx, largeJPEG(t)); err != nil {
		t.Fatalf("file selection failed: %v", err)
	}

	texts := h.notifier.texts()
	if len(texts) != 1 || texts[0] != "settingsMessageOptimize" {
		t.Fatalf("expected the optimize notice, got %v", texts)
	}
	// The notice is taken down once the work completes
	if !h.notifier.notices[0].hidden {
		t.Error("optimize notice left on screen")
	}
	if _, found := h.get(t, domain.KeyUserWallpaper); !found {
		t.Error("expected the optimized wallpaper to be persisted")
	}
}

func TestCoordinator_DecodeErrorLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if err := h.coordinator.OnFileSelected(ctx, smallJPEG(t)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	before, _ := h.get(t, domain.KeyUserWallpaper)

	garbage := append([]byte("not-an-image"), make([]byte, optimizer.SizeThreshold)...)
	err := h.coordinator.OnFileSelected(ctx, garbage)
	if !errors.Is(err, domain.ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}

	after, found := h.get(t, domain.KeyUserWallpaper)
	if !found || after != before {
		t.Error("decode failure must leave the persisted wallpaper untouched")
	}
	if h.broadcastCount() != 1 {
		t.Errorf("decode failure must not broadcast, got %d broadcasts", h.broadcastCount())
	}

	texts := h.notifier.texts()
	if len(texts) == 0 || texts[len(texts)-1] != "settingsErrorDecode" {
		t.Errorf("expected the decode error notice, got %v", texts)
	}

	// The failed selection does not poison the preview either
	snap, err := h.coordinator.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snap.Wallpaper != before {
		t.Error("preview changed after decode failure")
	}
}

func TestCoordinator_OverlayChangePersistsSingleKey(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if err := h.coordinator.OnOverlayOptionChanged(ctx, domain.KeyOverlayDarken, "0.8"); err != nil {
		t.Fatalf("overlay change failed: %v", err)
	}

	value, found := h.get(t, domain.KeyOverlayDarken)
	if !found || value != "0.8" {
		t.Errorf("expected persisted 0.8, got found=%v %q", found, value)
	}
	if _, found := h.get(t, domain.KeyOverlayBlur); found {
		t.Error("sibling overlay key must stay untouched")
	}
	if _, found := h.get(t, domain.KeyUserWallpaper); found {
		t.Error("wallpaper key must stay untouched")
	}
	if h.broadcastCount() != 0 {
		t.Errorf("overlay changes must not broadcast, got %d", h.broadcastCount())
	}
}

func TestCoordinator_OverlayChangeRejectsUnknownOption(t *testing.T) {
	h := newHarness(t)
	if err := h.coordinator.OnOverlayOptionChanged(context.Background(), "brightness", "1"); err == nil {
		t.Fatal("expected an error for an unknown option")
	}
	if h.broadcastCount() != 0 {
		t.Error("rejected option must not broadcast")
	}
}

func TestCoordinator_ResetClearsWallpaper(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if err := h.coordinator.OnFileSelected(ctx, smallJPEG(t)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := h.coordinator.OnOverlayOptionChanged(ctx, domain.KeyOverlayDarken, "0.8"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := h.coordinator.OnReset(ctx); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if _, found := h.get(t, domain.KeyUserWallpaper); found {
		t.Error("expected wallpaper key to be deleted")
	}
	if value, _ := h.get(t, domain.KeyOverlayDarken); value != "0.8" {
		t.Error("reset must not touch overlay keys")
	}
	if h.broadcastCount() != 2 { // selection + reset
		t.Errorf("expected 2 broadcasts, got %d", h.broadcastCount())
	}

	texts := h.notifier.texts()
	if len(texts) == 0 || texts[len(texts)-1] != "settingsSaved" {
		t.Errorf("expected the saved confirmation, got %v", texts)
	}

	snap, err := h.coordinator.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snap.HasWallpaper || snap.Wallpaper != "" {
		t.Error("expected an empty wallpaper snapshot after reset")
	}
}

func TestCoordinator_SubmitPersistsFormStateOnce(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if err := h.coordinator.OnFileSelected(ctx, smallJPEG(t)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := h.coordinator.OnOverlayOptionChanged(ctx, domain.KeyOverlayDarken, "0.3"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	before := h.broadcastCount()

	if err := h.coordinator.OnSubmit(ctx); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, found := h.get(t, domain.KeyUserWallpaper); !found {
		t.Error("expected the preview to be persisted")
	}
	if value, _ := h.get(t, domain.KeyOverlayDarken); value != "0.3" {
		t.Errorf("expected darken 0.3, got %q", value)
	}
	if got := h.broadcastCount() - before; got != 1 {
		t.Errorf("expected exactly 1 broadcast from submit, got %d", got)
	}

	texts := h.notifier.texts()
	if len(texts) == 0 || texts[len(texts)-1] != "settingsSaved" {
		t.Errorf("expected the saved confirmation, got %v", texts)
	}
}

func TestCoordinator_SubmitWithoutImageDeletesWallpaper(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	// A wallpaper persisted by an older run, not reflected in this form
	if err := h.store.Set(ctx, domain.AreaLocal, domain.KeyUserWallpaper, "data:stale"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := h.coordinator.OnSubmit(ctx); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if _, found := h.get(t, domain.KeyUserWallpaper); found {
		t.Error("submit without an image must delete the wallpaper key")
	}
}

func TestCoordinator_LoadResolvesDefaults(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	snap, err := h.coordinator.Load(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if snap.HasWallpaper {
		t.Error("expected no wallpaper on a fresh store")
	}
	if snap.OverlayDarken != domain.DefaultOverlayDarken {
		t.Errorf("expected default darken, got %q", snap.OverlayDarken)
	}
	if snap.OverlayBlur != domain.DefaultOverlayBlur {
		t.Errorf("expected default blur, got %q", snap.OverlayBlur)
	}
}
