package playback

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"ghosttunes/internal/media"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakePlayer struct {
	onEnd EndFunc

	mu      sync.Mutex
	playing bool
	paused  bool
	stopped bool
	once    sync.Once
}

func (p *fakePlayer) Play(*media.Stream) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	return nil
}

func (p *fakePlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

func (p *fakePlayer) Unpause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = false
}

func (p *fakePlayer) Stop() {
	p.mu.Lock()
	p.stopped = true
	started := p.playing
	p.mu.Unlock()
	if started {
		p.end(nil)
	}
}

// end simulates the player going idle (err == nil) or failing.
func (p *fakePlayer) end(err error) {
	p.once.Do(func() { go p.onEnd(err) })
}

func (p *fakePlayer) isPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

func (p *fakePlayer) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

type fakeConn struct {
	mu         sync.Mutex
	subscribed []Player
	destroyed  bool
}

func (c *fakeConn) Subscribe(p Player) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed = append(c.subscribed, p)
	return nil
}

func (c *fakeConn) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	return nil
}

func (c *fakeConn) isDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

type fakeTransport struct {
	mu        sync.Mutex
	joinErr   error
	joinBlock chan struct{}
	joins     int
	conns     []*fakeConn
	players   []*fakePlayer
}

func (t *fakeTransport) Join(ctx context.Context, guildID, channelID string) (Connection, error) {
	t.mu.Lock()
	t.joins++
	block, joinErr := t.joinBlock, t.joinErr
	t.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if joinErr != nil {
		return nil, joinErr
	}

	conn := &fakeConn{}
	t.mu.Lock()
	t.conns = append(t.conns, conn)
	t.mu.Unlock()
	return conn, nil
}

func (t *fakeTransport) NewPlayer(onEnd EndFunc) Player {
	p := &fakePlayer{onEnd: onEnd}
	t.mu.Lock()
	t.players = append(t.players, p)
	t.mu.Unlock()
	return p
}

func (t *fakeTransport) joinCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.joins
}

func (t *fakeTransport) playerCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.players)
}

func (t *fakeTransport) player(i int) *fakePlayer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.players[i]
}

func (t *fakeTransport) conn(i int) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conns[i]
}

type fakeStreams struct {
	mu     sync.Mutex
	fail   map[string]error
	block  map[string]chan struct{}
	opened []string
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{fail: map[string]error{}, block: map[string]chan struct{}{}}
}

func (f *fakeStreams) OpenStream(ctx context.Context, url string) (*media.Stream, error) {
	f.mu.Lock()
	f.opened = append(f.opened, url)
	block := f.block[url]
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	err := f.fail[url]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &media.Stream{ReadCloser: io.NopCloser(strings.NewReader("")), Type: media.TypeRawPCM}, nil
}

func (f *fakeStreams) setFail(url string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[url] = err
}

func (f *fakeStreams) setBlock(url string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.block[url] = ch
	return ch
}

func (f *fakeStreams) openedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

type fakeNotifier struct {
	mu    sync.Mutex
	notes []Notification
}

func (n *fakeNotifier) Notify(_ context.Context, _ string, note Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note)
}

func (n *fakeNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notes))
	for _, note := range n.notes {
		out = append(out, note.String())
	}
	return out
}

func (n *fakeNotifier) kinds() []NotificationKind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]NotificationKind, 0, len(n.notes))
	for _, note := range n.notes {
		out = append(out, note.Kind)
	}
	return out
}

type harness struct {
	ctl       *Controller
	store     *Store
	transport *fakeTransport
	streams   *fakeStreams
	notifier  *fakeNotifier
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		store:     NewStore(),
		transport: &fakeTransport{},
		streams:   newFakeStreams(),
		notifier:  &fakeNotifier{},
	}
	h.ctl = NewController(h.store, h.transport, h.streams, h.notifier, cfg, zerolog.Nop())
	t.Cleanup(h.ctl.StopAll)
	return h
}

func song(name string) media.Track {
	return media.Track{Title: name, URL: "https://example.com/" + strings.ToLower(name)}
}

func (h *harness) enqueue(t *testing.T, guildID string, track media.Track) EnqueueResult {
	t.Helper()
	res, err := h.ctl.Enqueue(context.Background(), EnqueueRequest{
		GuildID:        guildID,
		TextChannelID:  "text-" + guildID,
		VoiceChannelID: "voice-" + guildID,
		Track:          track,
	})
	require.NoError(t, err)
	return res
}

func (h *harness) waitMessages(t *testing.T, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		got := h.notifier.messages()
		if len(got) != len(want) {
			return false
		}
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}, time.Second, 5*time.Millisecond, "notifications: %v", h.notifier.messages())
}

func (h *harness) waitGone(t *testing.T, guildID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := h.store.Get(guildID)
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func titles(tracks []media.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.Title)
	}
	return out
}
