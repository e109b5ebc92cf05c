// Package musicapi is a client for JSON music search APIs (saavn-style).
package musicapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"ghosttunes/internal/media"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

type Client struct {
	Base   string
	Prefix string

	http    *http.Client
	limiter *rate.Limiter
}

// New creates a client. rps caps outgoing requests per second; zero or less
// disables the cap.
func New(base, prefix string, rps float64) *Client {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &Client{
		Base:    strings.TrimRight(base, "/"),
		Prefix:  "/" + strings.Trim(prefix, "/"),
		http:    &http.Client{Timeout: 12 * time.Second},
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *Client) SearchSongs(ctx context.Context, query string) ([]Song, error) {
	u, err := c.endpoint("search", "songs")
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("query", query)
	u.RawQuery = q.Encode()

	raw, err := c.getJSON(ctx, u.String())
	if err != nil {
		return nil, err
	}
	return NormalizeSearchSongs(raw)
}

func (c *Client) GetSongByID(ctx context.Context, id string) (*Song, error) {
	u, err := c.endpoint("songs", id)
	if err != nil {
		return nil, err
	}

	raw, err := c.getJSON(ctx, u.String())
	if err != nil {
		return nil, err
	}
	s, err := NormalizeSongDetail(raw)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Search implements media.Searcher. Results without a stream URL are filled in
// from the song detail endpoint; songs that still have none are dropped, since
// their web link is not audio.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]media.Track, error) {
	songs, err := c.SearchSongs(ctx, query)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 1
	}
	tracks := make([]media.Track, 0, limit)
	for _, s := range songs {
		if len(tracks) >= limit {
			break
		}
		if s.StreamURL == "" {
			d, err := c.GetSongByID(ctx, s.ID)
			if err != nil {
				zlog.Warn().Err(err).Str("song", s.ID).Msg("musicapi: song detail")
			} else {
				s.StreamURL = d.StreamURL
			}
		}
		if s.StreamURL == "" {
			zlog.Debug().Str("song", s.ID).Msg("musicapi: no stream url, dropped")
			continue
		}
		tracks = append(tracks, media.Track{Title: s.DisplayTitle(), URL: s.StreamURL})
	}
	return tracks, nil
}

func (c *Client) endpoint(parts ...string) (*url.URL, error) {
	u, err := url.Parse(c.Base)
	if err != nil {
		return nil, errors.Wrap(err, "musicapi: bad base url")
	}
	u.Path = path.Join(append([]string{u.Path, c.Prefix}, parts...)...)
	return u, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "musicapi")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("musicapi: status %d", resp.StatusCode)
	}

	var v any
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, errors.Wrap(err, "musicapi: decode")
	}
	return v, nil
}
