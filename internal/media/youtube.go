package media

import (
	"context"
	"net/http"
	"regexp"

	"github.com/cockroachdb/errors"
	"github.com/kkdai/youtube/v2"
)

var youtubeRegex = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.|music\.)?(?:youtube\.com|youtu\.be)/\S+`)

func IsYouTubeURL(s string) bool {
	return youtubeRegex.MatchString(s)
}

// YouTube resolves YouTube links. It cannot search free text.
type YouTube struct {
	client *youtube.Client
}

func NewYouTube(httpClient *http.Client) *YouTube {
	return &YouTube{client: &youtube.Client{HTTPClient: httpClient}}
}

// Search returns the single video a link points to.
func (y *YouTube) Search(ctx context.Context, link string, _ int) ([]Track, error) {
	video, err := y.client.GetVideoContext(ctx, link)
	if err != nil {
		return nil, errors.Wrapf(err, "youtube: get video %q", link)
	}
	return []Track{{
		Title: video.Title,
		URL:   "https://www.youtube.com/watch?v=" + video.ID,
	}}, nil
}

// StreamURL picks the best audio format of the video and returns its direct URL.
func (y *YouTube) StreamURL(ctx context.Context, link string) (string, error) {
	video, err := y.client.GetVideoContext(ctx, link)
	if err != nil {
		return "", errors.Wrapf(err, "youtube: get video %q", link)
	}

	formats := video.Formats.WithAudioChannels()
	if len(formats) == 0 {
		return "", errors.Wrapf(ErrNoAudio, "youtube: %s", video.ID)
	}
	best := formats[0]
	for _, f := range formats[1:] {
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}

	u, err := y.client.GetStreamURLContext(ctx, video, &best)
	if err != nil {
		return "", errors.Wrap(err, "youtube: stream url")
	}
	return u, nil
}
