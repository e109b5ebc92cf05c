// Package media resolves user queries into playable tracks and opens decoded
// audio streams for them.
package media

import (
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

// TypeRawPCM is signed 16-bit little-endian PCM, 48kHz stereo.
const TypeRawPCM = "s16le"

var (
	ErrNoSearchBackend = errors.New("no search backend configured")
	ErrNoAudio         = errors.New("no playable audio found")
	// ErrDecoder marks a decoder that exited with an error mid-stream.
	ErrDecoder = errors.New("decoder failed")
)

// Track is a single playable item. Treat it as immutable.
type Track struct {
	Title string
	URL   string
}

// Stream is an open, decoded audio stream. Closing it releases the decoder.
type Stream struct {
	io.ReadCloser
	Type string
}

type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Track, error)
}

type StreamOpener interface {
	OpenStream(ctx context.Context, url string) (*Stream, error)
}

// Resolver is what the bot needs from a media source.
type Resolver interface {
	Searcher
	StreamOpener
}

// Chain routes queries to the right source: YouTube links go through the
// YouTube client, other links are played as-is and free text goes to the
// search backend. Every stream is decoded by ffmpeg.
type Chain struct {
	search  Searcher
	youtube *YouTube
	ffmpeg  *FFmpeg
}

func NewChain(search Searcher, yt *YouTube, ff *FFmpeg) *Chain {
	return &Chain{search: search, youtube: yt, ffmpeg: ff}
}

func (c *Chain) Search(ctx context.Context, query string, limit int) ([]Track, error) {
	query = strings.TrimSpace(query)
	if limit <= 0 {
		limit = 1
	}

	switch {
	case c.youtube != nil && IsYouTubeURL(query):
		return c.youtube.Search(ctx, query, limit)
	case isURL(query):
		return []Track{{Title: query, URL: query}}, nil
	case c.search == nil:
		return nil, ErrNoSearchBackend
	}

	tracks, err := c.search.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

func (c *Chain) OpenStream(ctx context.Context, url string) (*Stream, error) {
	if c.youtube != nil && IsYouTubeURL(url) {
		direct, err := c.youtube.StreamURL(ctx, url)
		if err != nil {
			return nil, err
		}
		url = direct
	}
	return c.ffmpeg.Open(ctx, url)
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
