package voice

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"ghosttunes/internal/media"
	"ghosttunes/internal/playback"

	"github.com/cockroachdb/errors"
	"layeh.com/gopus"
)

const (
	frameSize    = 960  // 20ms @ 48kHz
	maxOpusBytes = 4000 // max packet size

	defaultSendTimeout = 2 * time.Second
)

var (
	ErrNotSubscribed  = errors.New("player is not subscribed to a connection")
	ErrAlreadyStarted = errors.New("player already started")
	ErrSendTimeout    = errors.New("opus send timeout (voice not ready)")
)

// Encoder turns one PCM frame into an Opus packet. *gopus.Encoder implements it.
type Encoder interface {
	Encode(pcm []int16, frameSize, maxDataBytes int) ([]byte, error)
}

type EncoderFactory func() (Encoder, error)

func OpusEncoder() (Encoder, error) {
	enc, err := gopus.NewEncoder(media.SampleRate, media.Channels, gopus.Audio)
	if err != nil {
		return nil, errors.Wrap(err, "opus encoder")
	}
	return enc, nil
}

// Player pumps one PCM stream into a voice connection as Opus packets.
type Player struct {
	newEncoder  EncoderFactory
	onEnd       playback.EndFunc
	sendTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	cond     *sync.Cond
	paused   bool
	started  bool
	stream   *media.Stream
	sink     chan<- []byte
	speaking func(bool)
}

func NewPlayer(newEncoder EncoderFactory, onEnd playback.EndFunc) *Player {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Player{
		newEncoder:  newEncoder,
		onEnd:       onEnd,
		sendTimeout: defaultSendTimeout,
		ctx:         ctx,
		cancel:      cancel,
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *Player) attach(sink chan<- []byte, speaking func(bool)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink = sink
	p.speaking = speaking
}

// Play starts streaming s in the background. The end callback fires once the
// stream is exhausted, fails or the player is stopped.
func (p *Player) Play(s *media.Stream) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.started:
		return ErrAlreadyStarted
	case p.sink == nil:
		return ErrNotSubscribed
	case s.Type != media.TypeRawPCM:
		return errors.Newf("unsupported stream type %q", s.Type)
	case p.ctx.Err() != nil:
		return p.ctx.Err()
	}

	enc, err := p.newEncoder()
	if err != nil {
		return err
	}
	p.started = true
	p.stream = s
	go p.run(enc, s, p.sink, p.speaking)
	return nil
}

func (p *Player) Pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

func (p *Player) Unpause() {
	p.mu.Lock()
	p.paused = false
	p.mu.Unlock()
	p.cond.Broadcast()
}

func (p *Player) Stop() {
	p.cancel()
	p.mu.Lock()
	s := p.stream
	p.mu.Unlock()
	p.cond.Broadcast()
	if s != nil {
		// unblocks a read waiting on the decoder
		_ = s.Close()
	}
}

func (p *Player) run(enc Encoder, s *media.Stream, sink chan<- []byte, speaking func(bool)) {
	if speaking != nil {
		speaking(true)
		defer speaking(false)
	}
	err := p.pump(enc, s, sink)
	_ = s.Close()
	if p.ctx.Err() != nil {
		err = nil
	}
	p.onEnd(err)
}

func (p *Player) pump(enc Encoder, s io.Reader, sink chan<- []byte) error {
	reader := bufio.NewReaderSize(s, 1<<16)
	pcm := make([]int16, frameSize*media.Channels)
	buf := make([]byte, len(pcm)*2)

	for {
		if !p.waitIfPaused() {
			return nil
		}

		if err := readFrame(reader, buf, pcm); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return errors.Wrap(err, "read pcm")
		}

		packet, err := enc.Encode(pcm, frameSize, maxOpusBytes)
		if err != nil {
			return errors.Wrap(err, "opus encode")
		}

		timer := time.NewTimer(p.sendTimeout)
		select {
		case sink <- packet:
			timer.Stop()
		case <-p.ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
			return ErrSendTimeout
		}
	}
}

// waitIfPaused blocks while paused. It returns false once the player is stopped.
func (p *Player) waitIfPaused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.paused && p.ctx.Err() == nil {
		p.cond.Wait()
	}
	return p.ctx.Err() == nil
}

func readFrame(r io.Reader, buf []byte, dst []int16) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	for i := range dst {
		dst[i] = int16(binary.LittleEndian.Uint16(buf[i*2:]))
	}
	return nil
}
