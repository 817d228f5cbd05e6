package domain

import (
	"context"
	"time"
)

// StorageProvider is the external asynchronous key-value backend the
// storage layer sits on. Implementations own the data; the storage layer
// only owns namespacing and subscriber fan-out.
//
//go:generate mockgen -destination=../storage/mocks/provider_mock.go -package=mocks github.com/walltab/walltab/internal/domain StorageProvider
type StorageProvider interface {
	// Has reports whether the given area is exposed by the provider
	// at call time
	Has(area StorageArea) bool

	// Set stores value under key in the given area
	Set(ctx context.Context, area StorageArea, key, value string) error

	// Get retrieves the value stored under key. found is false when the
	// key is unset, which callers must be able to tell apart from an
	// empty string.
	Get(ctx context.Context, area StorageArea, key string) (value string, found bool, err error)

	// Delete removes key from the given area. Deleting a missing key is
	// not an error.
	Delete(ctx context.Context, area StorageArea, key string) error

	// Watch returns the provider's raw change feed. Events carry
	// provider-level (prefixed) keys.
	Watch() <-chan ChangeEvent

	// Close releases the provider's resources
	Close() error
}

// Broadcaster delivers messages between every running context sharing the
// same storage namespace
type Broadcaster interface {
	// Broadcast delivers msg to all subscribers, including those in
	// other processes when the transport supports it
	Broadcast(ctx context.Context, msg Message) error

	// Subscribe registers fn for every future broadcast. Subscriptions
	// live for the life of the broadcaster.
	Subscribe(fn func(Message))
}

// Presenter is the presentation-layer capability the display controller
// drives. It abstracts an image surface with load/error reporting and an
// opacity animation primitive.
type Presenter interface {
	// SetSource points the surface at a new image. It returns
	// immediately; the outcome arrives on Events.
	SetSource(uri string)

	// Events returns the surface's load feed. Exactly one event is
	// emitted per SetSource call; additional LoadFailed events may
	// follow later if the currently displayed image becomes unrenderable.
	Events() <-chan LoadEvent

	// Animate ramps the image opacity from one value to another over the
	// given duration, easing in-out, and leaves the end state applied.
	// It returns when the animation completes or ctx is cancelled.
	Animate(ctx context.Context, fromOpacity, toOpacity float64, d time.Duration) error

	// SetAttribution shows the attribution label with the given text,
	// linking to href
	SetAttribution(text, href string)

	// HideAttribution hides the attribution label
	HideAttribution()

	// SetOverlay applies the darken opacity and blur radius overlays
	SetOverlay(darken, blur float64)
}

// Notice is a dismissible user notification handle
type Notice interface {
	// Hide dismisses the notification
	Hide()
}

// Notifier surfaces one-shot notifications to the user
type Notifier interface {
	// Notify shows text for the given duration. A zero timeout keeps the
	// notice up until Hide is called on the returned handle.
	Notify(text string, timeout time.Duration) Notice
}

// Translator resolves locale string keys
type Translator interface {
	// Translate returns the message for key with $1..$n placeholders
	// replaced by the given substitutions
	Translate(key string, substitutions ...string) string
}
