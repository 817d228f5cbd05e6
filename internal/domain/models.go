package domain

// StorageArea selects an isolation domain in the external key-value provider
type StorageArea string

const (
	// AreaLocal is device-local storage
	AreaLocal StorageArea = "local"
	// AreaSync is account-synced storage, replicated by the provider
	AreaSync StorageArea = "sync"
)

// Logical setting keys. The storage layer applies the namespace prefix
// before any of these reach the external provider.
const (
	// KeyUserWallpaper holds the persisted wallpaper as a data URI
	KeyUserWallpaper = "userWallpaper"
	// KeyOverlayDarken holds the darken overlay opacity in [0,1]
	KeyOverlayDarken = "overlayDarken"
	// KeyOverlayBlur holds the optional blur overlay radius
	KeyOverlayBlur = "overlayBlur"
	// KeyDebug enables verbose display logging when set
	KeyDebug = "debug"
)

// Overlay values applied when the corresponding key is unset
const (
	DefaultOverlayDarken = "0.5"
	DefaultOverlayBlur   = "0"
)

// ActionNewWallpaper is broadcast to every running context after a
// wallpaper save or reset
const ActionNewWallpaper = "new-wallpaper"

// CreditsLink is the attribution target used when a record credits an
// author without providing a link of its own
const CreditsLink = "https://github.com/walltab/walltab#image-credits"

// WallpaperRecord describes one image to display plus its attribution.
// Records are built fresh for every display cycle and never mutated.
type WallpaperRecord struct {
	// Image is either a self-contained data URI (persisted form) or a
	// transient local handle (runtime-only form, never persisted)
	Image string
	// TransientRef is true when Image is a short-lived handle that must
	// be released exactly once after the presentation layer is done with it
	TransientRef bool
	// Author credits the image creator; empty when unknown
	Author string
	// Link points at the author or source page; empty when unknown
	Link string
}

// Usable reports whether the record can be rendered at all.
// Unusable records are never shown; callers fall back instead.
func (r WallpaperRecord) Usable() bool {
	return r.Image != ""
}

// Settings is the user-visible configuration snapshot backing the options form
type Settings struct {
	// Wallpaper is the persisted image as a data URI
	Wallpaper string
	// HasWallpaper distinguishes "no custom wallpaper" from an empty value
	HasWallpaper bool
	// OverlayDarken is the darken overlay opacity as a stringified float
	OverlayDarken string
	// OverlayBlur is the blur overlay radius as a stringified float
	OverlayBlur string
}

// ChangeEvent describes a single key change reported by the storage layer
type ChangeEvent struct {
	// Area is the isolation domain the change happened in
	Area StorageArea
	// Key is the changed key. The provider reports raw (prefixed) keys;
	// the storage layer strips the namespace before fanning out.
	Key string
	// OldValue is the previous value, valid only when HadOld is true
	OldValue string
	// NewValue is the new value, valid only when HasNew is true
	NewValue string
	// HadOld is false when the key was previously unset
	HadOld bool
	// HasNew is false when the key was deleted
	HasNew bool
}

// Message is a cross-context broadcast payload
type Message struct {
	// Action identifies what happened (e.g. ActionNewWallpaper)
	Action string
}

// LoadStatus reports the outcome of a presentation-layer source swap
type LoadStatus string

const (
	// LoadOK indicates the image decoded and is ready to show
	LoadOK LoadStatus = "loaded"
	// LoadFailed indicates the presentation layer could not render the image
	LoadFailed LoadStatus = "failed"
)

// LoadEvent is emitted by the presentation layer for every source it was
// asked to display
type LoadEvent struct {
	// Status is the load outcome
	Status LoadStatus
	// URI is the source the event refers to
	URI string
}

// ScreenResolution holds the primary display dimensions
type ScreenResolution struct {
	Width  int
	Height int
}
