package display

import (
	"encoding/base64"
	"os"
	"testing"

	"go.uber.org/zap"
)

func TestBlobCache_CreateAndRelease(t *testing.T) {
	cache, err := NewBlobCache(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	payload := []byte("jpeg-bytes-here")
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	ref, err := cache.Create(uri)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	data, err := os.ReadFile(ref)
	if err != nil {
		t.Fatalf("reference is not loadable: %v", err)
	}
	if string(data) != string(payload) {
		t.Errorf("payload mismatch: got %q", data)
	}

	// Two creates from the same URI yield independent references
	ref2, err := cache.Create(uri)
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if ref2 == ref {
		t.Error("expected a distinct reference per create")
	}

	if err := cache.Release(ref); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if _, err := os.Stat(ref); !os.IsNotExist(err) {
		t.Error("released reference still loadable")
	}
	if _, err := os.ReadFile(ref2); err != nil {
		t.Errorf("sibling reference affected by release: %v", err)
	}
}

func TestBlobCache_RejectsMalformedURIs(t *testing.T) {
	cache, err := NewBlobCache(zap.NewNop(), t.TempDir())
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	tests := []struct {
		name string
		uri  string
	}{
		{name: "Not a data uri", uri: "https://example.com/img.jpg"},
		{name: "Missing base64 marker", uri: "data:image/png,rawbytes"},
		{name: "Invalid payload", uri: "data:image/png;base64,!!not-base64!!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := cache.Create(tt.uri); err == nil {
				t.Error("expected an error for malformed input")
			}
		})
	}
}

func TestBlobCache_ReleaseUnknownRefFails(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewBlobCache(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	if err := cache.Release(dir + "/never-created"); err == nil {
		t.Error("expected an error releasing an unknown reference")
	}
}

func TestBlobCache_CloseRemovesEverything(t *testing.T) {
	dir := t.TempDir() + "/blobs"
	cache, err := NewBlobCache(zap.NewNop(), dir)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}

	if _, err := cache.Create("data:text/plain;base64," + base64.StdEncoding.EncodeToString([]byte("x"))); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := cache.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("scratch directory survived close")
	}
}
