package playback

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"ghosttunes/internal/media"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type eventKind int

const (
	eventStart eventKind = iota
	eventEnded
)

type event struct {
	kind eventKind
	gen  uint64
	err  error
}

// Queue is the playback session of one guild. pending[0] is the track that is
// loaded (or being loaded); it leaves the queue only when it ends or fails.
type Queue struct {
	id             uuid.UUID
	guildID        string
	textChannelID  string
	voiceChannelID string
	log            zerolog.Logger

	mu       sync.Mutex
	state    State
	pending  []media.Track
	conn     Connection
	player   Player
	playing  bool
	gen      uint64 // bumped for every player bound to conn
	closed   bool
	failures int // consecutive tracks that failed to start or to finish

	cancelResolve context.CancelFunc
	skips         int  // heads to drop before the next start
	stopRequested bool // the bound player was stopped by a skip

	events chan event
	done   chan struct{}
}

func newQueue(guildID, textChannelID, voiceChannelID string, log zerolog.Logger) *Queue {
	id := uuid.New()
	return &Queue{
		id:             id,
		guildID:        guildID,
		textChannelID:  textChannelID,
		voiceChannelID: voiceChannelID,
		log:            log.With().Str("guild", guildID).Str("session", id.String()).Logger(),
		state:          StateIdle,
		events:         make(chan event, 4),
		done:           make(chan struct{}),
	}
}

func (q *Queue) GuildID() string { return q.guildID }

// tokenLocked identifies the bound player within this session. Empty when
// nothing is loaded.
func (q *Queue) tokenLocked() string {
	if q.player == nil {
		return ""
	}
	return fmt.Sprintf("%s.%d", q.id, q.gen)
}

// post hands an event to the advance loop. It never blocks past teardown.
func (q *Queue) post(ev event) {
	select {
	case q.events <- ev:
	case <-q.done:
	}
}

// transitionLocked moves the queue to another state. Edges outside the table
// are refused and logged, leaving the state unchanged.
func (q *Queue) transitionLocked(to State) bool {
	if !q.state.CanTransitionTo(to) {
		q.log.Error().Stringer("from", q.state).Stringer("to", to).Msg("playback: illegal state transition")
		return false
	}
	if q.state != to {
		q.log.Debug().Stringer("from", q.state).Stringer("to", to).Msg("playback: state")
	}
	q.state = to
	return true
}

// Snapshot is a read-only copy of a queue.
type Snapshot struct {
	SessionID      string
	GuildID        string
	TextChannelID  string
	VoiceChannelID string
	State          State
	Pending        []media.Track
	Playing        bool
	// Token changes with every track start; controls rendered for one track
	// carry it.
	Token string
}

// NowPlaying returns the loaded track, if any.
func (s Snapshot) NowPlaying() (media.Track, bool) {
	if !s.State.Loaded() || len(s.Pending) == 0 {
		return media.Track{}, false
	}
	return s.Pending[0], true
}

func (q *Queue) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Snapshot{
		SessionID:      q.id.String(),
		GuildID:        q.guildID,
		TextChannelID:  q.textChannelID,
		VoiceChannelID: q.voiceChannelID,
		State:          q.state,
		Pending:        slices.Clone(q.pending),
		Playing:        q.playing,
		Token:          q.tokenLocked(),
	}
}
