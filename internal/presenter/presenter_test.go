package presenter

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/walltab/walltab/internal/domain"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// fakeSetter applies instantly, optionally failing
type fakeSetter struct {
	err     error
	applied []string
}

func (s *fakeSetter) Apply(ctx context.Context, imagePath string) error {
	s.applied = append(s.applied, imagePath)
	return s.err
}

func newTestPresenter(t *testing.T, s setter, buffer int) *DesktopPresenter {
	t.Helper()
	p := &DesktopPresenter{
		logger: zap.NewNop(),
		setter: s,
		events: make(chan domain.LoadEvent, buffer),
		tmpDir: t.TempDir(),
		done:   make(chan struct{}),
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func recvLoad(t *testing.T, p *DesktopPresenter) domain.LoadEvent {
	t.Helper()
	select {
	case ev := <-p.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for load event")
		return domain.LoadEvent{}
	}
}

func TestPresenter_SetSourceReportsOutcome(t *testing.T) {
	s := &fakeSetter{}
	p := newTestPresenter(t, s, 4)

	p.SetSource("/tmp/current.img")
	ev := recvLoad(t, p)
	if ev.Status != domain.LoadOK || ev.URI != "/tmp/current.img" {
		t.Errorf("unexpected event: %+v", ev)
	}
	if len(s.applied) != 1 || s.applied[0] != "/tmp/current.img" {
		t.Errorf("plain paths must be applied as-is, got %v", s.applied)
	}
}

func TestPresenter_SetSourceMaterialisesDataURIs(t *testing.T) {
	s := &fakeSetter{}
	p := newTestPresenter(t, s, 4)

	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("jpeg-bytes"))
	p.SetSource(uri)

	ev := recvLoad(t, p)
	if ev.Status != domain.LoadOK || ev.URI != uri {
		t.Errorf("unexpected event: %+v", ev)
	}
	// The setter sees a file path, never the data URI itself
	if len(s.applied) != 1 || s.applied[0] == uri {
		t.Errorf("expected a materialised path, got %v", s.applied)
	}
}

func TestPresenter_ApplyFailureReportsLoadFailed(t *testing.T) {
	p := newTestPresenter(t, &fakeSetter{err: errors.New("no display")}, 4)

	p.SetSource("/tmp/current.img")
	if ev := recvLoad(t, p); ev.Status != domain.LoadFailed {
		t.Errorf("expected LoadFailed, got %+v", ev)
	}
}

func TestPresenter_CloseUnblocksPendingReports(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Unbuffered feed with no consumer: the report goroutine must not
	// outlive the presenter
	p := newTestPresenter(t, &fakeSetter{}, 0)
	p.SetSource("/tmp/current.img")

	if err := p.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	// Close is idempotent
	if err := p.Close(); err != nil {
		t.Fatalf("second close failed: %v", err)
	}
}

func TestPresenter_AnimateHonoursContext(t *testing.T) {
	p := newTestPresenter(t, &fakeSetter{}, 4)

	if err := p.Animate(context.Background(), 0, 1, time.Millisecond); err != nil {
		t.Errorf("expected completion, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Animate(ctx, 1, 0, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
