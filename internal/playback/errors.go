package playback

import "github.com/cockroachdb/errors"

var (
	ErrNothingPlaying = errors.New("nothing is playing")
	ErrNothingPaused  = errors.New("nothing is paused")
	ErrNothingToSkip  = errors.New("nothing to skip")

	// ErrTransport marks voice join and connection failures.
	ErrTransport = errors.New("voice transport")
	// ErrPlayback marks stream and player failures.
	ErrPlayback = errors.New("playback")
)
