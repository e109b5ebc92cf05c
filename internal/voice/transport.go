// Package voice streams audio into Discord voice channels.
package voice

import (
	"context"
	"sync"

	"ghosttunes/internal/playback"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Transport joins voice channels through a discordgo session.
type Transport struct {
	dg         *discordgo.Session
	newEncoder EncoderFactory
}

func NewTransport(dg *discordgo.Session) *Transport {
	return &Transport{dg: dg, newEncoder: OpusEncoder}
}

// Join connects to the channel. ChannelVoiceJoin has no context, so a join
// that outlives ctx is disconnected as soon as it completes.
func (t *Transport) Join(ctx context.Context, guildID, channelID string) (playback.Connection, error) {
	type result struct {
		vc  *discordgo.VoiceConnection
		err error
	}
	ch := make(chan result, 1)
	go func() {
		vc, err := t.dg.ChannelVoiceJoin(guildID, channelID, false, true)
		ch <- result{vc: vc, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return nil, errors.Wrapf(r.err, "voice join guild=%s channel=%s", guildID, channelID)
		}
		return &Connection{vc: r.vc}, nil
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.vc != nil {
				_ = r.vc.Disconnect()
			}
		}()
		return nil, errors.Wrap(ctx.Err(), "voice join")
	}
}

func (t *Transport) NewPlayer(onEnd playback.EndFunc) playback.Player {
	return NewPlayer(t.newEncoder, onEnd)
}

// Connection is a joined voice channel. Only one player is subscribed at a time.
type Connection struct {
	vc *discordgo.VoiceConnection

	mu     sync.Mutex
	player *Player
}

func (c *Connection) Subscribe(p playback.Player) error {
	vp, ok := p.(*Player)
	if !ok {
		return errors.Newf("voice: cannot subscribe %T", p)
	}
	c.mu.Lock()
	c.player = vp
	c.mu.Unlock()

	vp.attach(c.vc.OpusSend, func(on bool) {
		if err := c.vc.Speaking(on); err != nil {
			zlog.Debug().Err(err).Bool("speaking", on).Msg("voice: speaking update")
		}
	})
	return nil
}

func (c *Connection) Destroy() error {
	c.mu.Lock()
	p := c.player
	c.player = nil
	c.mu.Unlock()
	if p != nil {
		p.Stop()
	}
	return c.vc.Disconnect()
}
