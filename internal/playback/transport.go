package playback

import (
	"context"

	"ghosttunes/internal/media"
)

// EndFunc receives the end of a track: nil for a natural end or a forced
// stop, the cause otherwise.
type EndFunc func(err error)

// Player plays one stream at a time into the connection it is subscribed to.
// Implementations call their EndFunc exactly once per successful Play, from a
// goroutine other than the caller's. Stop on a finished player is a no-op.
type Player interface {
	Play(s *media.Stream) error
	Pause()
	Unpause()
	Stop()
}

// Connection is a voice connection to one channel.
type Connection interface {
	Subscribe(p Player) error
	Destroy() error
}

type Transport interface {
	Join(ctx context.Context, guildID, channelID string) (Connection, error)
	NewPlayer(onEnd EndFunc) Player
}
