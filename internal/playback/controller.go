package playback

import (
	"context"
	"sync"
	"time"

	"ghosttunes/internal/media"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Config holds controller configuration.
type Config struct {
	JoinTimeout    time.Duration // zero means no timeout
	ResolveTimeout time.Duration // zero means no timeout
	// MaxConsecutiveFailures ends the session after that many tracks in a row
	// fail to start. Zero keeps popping until the queue is empty.
	MaxConsecutiveFailures int
}

// EnqueueRequest asks for a track to be played in a guild.
type EnqueueRequest struct {
	GuildID        string
	TextChannelID  string
	VoiceChannelID string
	Track          media.Track
}

// EnqueueResult tells whether the track opened a new session or was appended
// to an existing one, and its index in the pending list.
type EnqueueResult struct {
	Started  bool
	Position int
}

// Controller drives the playback sessions held in a Store. Every session has
// its own advance loop; operations on one guild are serialized by the queue's
// lock and never hold it across network calls.
type Controller struct {
	store     *Store
	transport Transport
	streams   media.StreamOpener
	notifier  Notifier
	config    Config
	log       zerolog.Logger

	wg sync.WaitGroup
}

func NewController(store *Store, transport Transport, streams media.StreamOpener, notifier Notifier, config Config, log zerolog.Logger) *Controller {
	return &Controller{
		store:     store,
		transport: transport,
		streams:   streams,
		notifier:  notifier,
		config:    config,
		log:       log,
	}
}

// Enqueue appends the track to the guild's session, opening one if needed.
// Opening joins the voice channel before returning; the track itself starts
// asynchronously and announces itself through the Notifier.
func (c *Controller) Enqueue(ctx context.Context, req EnqueueRequest) (EnqueueResult, error) {
	for {
		q, created := c.store.GetOrCreate(req.GuildID, func() *Queue {
			q := newQueue(req.GuildID, req.TextChannelID, req.VoiceChannelID, c.log)
			q.pending = append(q.pending, req.Track)
			q.transitionLocked(StateLoading)
			return q
		})
		if created {
			q.log.Info().Str("track", req.Track.Title).Msg("playback: session opened")
			return EnqueueResult{Started: true}, c.open(ctx, q)
		}

		q.mu.Lock()
		if q.closed {
			// torn down between lookup and lock; the store no longer holds it
			q.mu.Unlock()
			continue
		}
		q.pending = append(q.pending, req.Track)
		pos := len(q.pending) - 1
		q.mu.Unlock()

		q.log.Debug().Str("track", req.Track.Title).Int("position", pos).Msg("playback: queued")
		return EnqueueResult{Position: pos}, nil
	}
}

func (c *Controller) open(ctx context.Context, q *Queue) error {
	if c.config.JoinTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.JoinTimeout)
		defer cancel()
	}
	conn, err := c.transport.Join(ctx, q.guildID, q.voiceChannelID)

	q.mu.Lock()
	if err != nil {
		var player Player
		var old Connection
		if !q.closed {
			player, old = c.closeLocked(q)
		}
		q.mu.Unlock()
		c.release(q, player, old)

		q.log.Error().Err(err).Str("channel", q.voiceChannelID).Msg("playback: voice join failed")
		return errors.Mark(errors.Wrap(err, "join voice channel"), ErrTransport)
	}
	if q.closed {
		// stopped while joining
		q.mu.Unlock()
		c.release(q, nil, conn)
		return nil
	}
	q.conn = conn
	q.mu.Unlock()

	c.wg.Add(1)
	go c.run(q)
	q.post(event{kind: eventStart})
	return nil
}

// run is the advance loop of one session.
func (c *Controller) run(q *Queue) {
	defer c.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case ev := <-q.events:
			switch ev.kind {
			case eventStart:
				c.playHead(q)
			case eventEnded:
				c.trackEnded(q, ev)
			}
		}
	}
}

func (c *Controller) trackEnded(q *Queue, ev event) {
	q.mu.Lock()
	if q.closed || ev.gen != q.gen || q.player == nil {
		q.mu.Unlock()
		return
	}
	head := q.pending[0]
	skipped := q.stopRequested
	q.player = nil
	q.stopRequested = false
	if ev.err == nil || skipped {
		q.log.Debug().Str("track", head.Title).Bool("skipped", skipped).Msg("playback: track ended")
		q.failures = 0
		c.popLocked(q)
		q.mu.Unlock()
		c.playHead(q)
		return
	}
	gaveUp := c.failLocked(q, head, ev.err)
	q.mu.Unlock()

	c.notify(q, Notification{Kind: NotifyTrackFailed, Track: head, Err: ev.err})
	if gaveUp {
		c.notify(q, Notification{Kind: NotifyGaveUp})
	}
	c.playHead(q)
}

// popLocked drops the head track and enters Advancing.
func (c *Controller) popLocked(q *Queue) {
	q.transitionLocked(StateAdvancing)
	if len(q.pending) > 0 {
		q.pending = q.pending[1:]
	}
}

// playHead starts the head of the queue. Pending skips drop heads first.
// Tracks that fail to open are popped and the next head is tried, until one
// plays, the queue runs dry or the failure cap is hit.
func (c *Controller) playHead(q *Queue) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return
		}
		for q.skips > 0 && len(q.pending) > 0 {
			q.skips--
			c.popLocked(q)
		}
		q.skips = 0
		if len(q.pending) == 0 {
			player, conn := c.closeLocked(q)
			q.mu.Unlock()
			c.release(q, player, conn)
			q.log.Info().Msg("playback: queue finished, session closed")
			return
		}
		head := q.pending[0]
		ctx, cancel := c.resolveContext()
		q.cancelResolve = cancel
		q.mu.Unlock()

		stream, err := c.streams.OpenStream(ctx, head.URL)

		q.mu.Lock()
		cancel()
		q.cancelResolve = nil
		if q.closed || q.skips > 0 {
			q.mu.Unlock()
			if stream != nil {
				_ = stream.Close()
			}
			continue
		}
		if err == nil {
			err = c.bindLocked(q, stream)
		}
		if err != nil {
			gaveUp := c.failLocked(q, head, err)
			q.mu.Unlock()

			c.notify(q, Notification{Kind: NotifyTrackFailed, Track: head, Err: err})
			if gaveUp {
				c.notify(q, Notification{Kind: NotifyGaveUp})
			}
			continue
		}
		token := q.tokenLocked()
		q.mu.Unlock()

		q.log.Info().Str("track", head.Title).Msg("playback: now playing")
		c.notify(q, Notification{Kind: NotifyNowPlaying, Track: head, Token: token})
		return
	}
}

func (c *Controller) resolveContext() (context.Context, context.CancelFunc) {
	if c.config.ResolveTimeout > 0 {
		return context.WithTimeout(context.Background(), c.config.ResolveTimeout)
	}
	return context.WithCancel(context.Background())
}

// bindLocked creates a player for the head track, subscribes it to the
// connection and starts it.
func (c *Controller) bindLocked(q *Queue, stream *media.Stream) error {
	q.gen++
	gen := q.gen
	player := c.transport.NewPlayer(func(err error) {
		q.post(event{kind: eventEnded, gen: gen, err: err})
	})
	if err := q.conn.Subscribe(player); err != nil {
		_ = stream.Close()
		return errors.Mark(errors.Wrap(err, "subscribe player"), ErrTransport)
	}
	if err := player.Play(stream); err != nil {
		_ = stream.Close()
		return errors.Mark(errors.Wrap(err, "start player"), ErrPlayback)
	}
	q.player = player
	q.playing = true
	q.stopRequested = false
	q.transitionLocked(StatePlaying)
	return nil
}

// failLocked pops a head that failed to start or failed while playing. Once
// the failure cap is hit the rest of the queue is dropped too, so the loop
// tears the session down.
func (c *Controller) failLocked(q *Queue, head media.Track, err error) (gaveUp bool) {
	q.failures++
	q.log.Error().Err(errors.Mark(err, ErrPlayback)).Str("track", head.Title).Int("failures", q.failures).Msg("playback: track failed")
	c.popLocked(q)

	if limit := c.config.MaxConsecutiveFailures; limit > 0 && q.failures >= limit && len(q.pending) > 0 {
		q.log.Warn().Int("dropped", len(q.pending)).Msg("playback: failure cap reached")
		q.pending = nil
		return true
	}
	return false
}

// closeLocked ends the session: the queue is emptied, marked closed and
// removed from the store. The returned player and connection must be released
// after the lock is dropped.
func (c *Controller) closeLocked(q *Queue) (Player, Connection) {
	q.closed = true
	q.pending = nil
	q.playing = false
	if q.cancelResolve != nil {
		q.cancelResolve()
		q.cancelResolve = nil
	}
	q.transitionLocked(StateIdle)

	player, conn := q.player, q.conn
	q.player, q.conn = nil, nil
	c.store.CompareAndDelete(q.guildID, q)
	close(q.done)
	return player, conn
}

func (c *Controller) release(q *Queue, player Player, conn Connection) {
	if player != nil {
		player.Stop()
	}
	if conn != nil {
		if err := conn.Destroy(); err != nil {
			q.log.Warn().Err(errors.Mark(err, ErrTransport)).Msg("playback: destroy voice connection")
		}
	}
}

func (c *Controller) notify(q *Queue, n Notification) {
	if c.notifier == nil {
		return
	}
	n.GuildID = q.guildID
	n.VoiceChannelID = q.voiceChannelID
	c.notifier.Notify(context.Background(), q.textChannelID, n)
}

// Pause pauses the playing track.
func (c *Controller) Pause(guildID string) error {
	q, ok := c.store.Get(guildID)
	if !ok {
		return ErrNothingPlaying
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.state != StatePlaying || q.player == nil {
		return ErrNothingPlaying
	}
	q.player.Pause()
	q.playing = false
	q.transitionLocked(StatePaused)
	return nil
}

// Resume resumes a paused track.
func (c *Controller) Resume(guildID string) error {
	q, ok := c.store.Get(guildID)
	if !ok {
		return ErrNothingPaused
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.state != StatePaused || q.player == nil {
		return ErrNothingPaused
	}
	q.player.Unpause()
	q.playing = true
	q.transitionLocked(StatePlaying)
	return nil
}

// Skip force-stops the current track; its end event advances the queue. A
// head that is still being resolved is abandoned instead. Skips that arrive
// before the advance are counted, one track each.
func (c *Controller) Skip(guildID string) error {
	q, ok := c.store.Get(guildID)
	if !ok {
		return ErrNothingToSkip
	}
	q.mu.Lock()
	remaining := len(q.pending) - q.skips
	if q.stopRequested {
		remaining--
	}
	if q.closed || remaining <= 0 {
		q.mu.Unlock()
		return ErrNothingToSkip
	}
	var player Player
	switch {
	case q.player != nil && !q.stopRequested:
		player = q.player
		q.stopRequested = true
	default:
		q.skips++
		if q.player == nil && q.cancelResolve != nil {
			q.cancelResolve()
		}
	}
	q.mu.Unlock()

	if player != nil {
		player.Stop()
	}
	q.log.Debug().Msg("playback: skip")
	return nil
}

// Stop clears the queue, stops the player and leaves the voice channel.
func (c *Controller) Stop(guildID string) error {
	q, ok := c.store.Get(guildID)
	if !ok {
		return ErrNothingPlaying
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrNothingPlaying
	}
	player, conn := c.closeLocked(q)
	q.mu.Unlock()

	c.release(q, player, conn)
	q.log.Info().Msg("playback: stopped")
	return nil
}

// StopAll ends every session and waits for their loops to exit.
func (c *Controller) StopAll() {
	for _, q := range c.store.All() {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			continue
		}
		player, conn := c.closeLocked(q)
		q.mu.Unlock()
		c.release(q, player, conn)
	}
	c.wg.Wait()
}

// Snapshot returns a copy of the guild's session.
func (c *Controller) Snapshot(guildID string) (Snapshot, bool) {
	q, ok := c.store.Get(guildID)
	if !ok {
		return Snapshot{}, false
	}
	return q.Snapshot(), true
}
