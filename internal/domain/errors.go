package domain

import "errors"

var (
	// ErrStorageUnavailable means the requested storage area is not
	// exposed by the provider at call time. Detected before the
	// operation is attempted, never inferred from a low-level failure.
	ErrStorageUnavailable = errors.New("storage area unavailable")

	// ErrDecode means the source bytes could not be decoded as an image.
	// The triggering cycle is aborted and nothing partial is persisted.
	ErrDecode = errors.New("image decode failed")

	// ErrLoad means the presentation layer failed to render the active
	// image. Recovered automatically by falling back to the default record.
	ErrLoad = errors.New("image load failed")
)
