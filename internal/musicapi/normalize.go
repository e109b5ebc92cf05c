package musicapi

import (
	"strings"

	"github.com/cockroachdb/errors"
)

var ErrUnknownShape = errors.New("musicapi: JSON shape not recognized")

// NormalizeSearchSongs accepts a bare array, {data: [...]},
// {data: {results: [...]}} or {results: [...]}.
func NormalizeSearchSongs(raw any) ([]Song, error) {
	switch t := raw.(type) {
	case []any:
		return songsFromArray(t), nil
	case map[string]any:
		if data, ok := t["data"]; ok {
			switch d := data.(type) {
			case []any:
				return songsFromArray(d), nil
			case map[string]any:
				if res, ok := d["results"].([]any); ok {
					return songsFromArray(res), nil
				}
			}
		}
		if res, ok := t["results"].([]any); ok {
			return songsFromArray(res), nil
		}
	}
	return nil, ErrUnknownShape
}

func NormalizeSongDetail(raw any) (Song, error) {
	t, ok := raw.(map[string]any)
	if !ok {
		return Song{}, ErrUnknownShape
	}
	switch d := t["data"].(type) {
	case map[string]any:
		return songFromObj(d), nil
	case []any:
		if len(d) > 0 {
			if obj, ok := d[0].(map[string]any); ok {
				return songFromObj(obj), nil
			}
		}
	}
	return songFromObj(t), nil
}

func songsFromArray(arr []any) []Song {
	out := make([]Song, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if s := songFromObj(obj); s.ID != "" && s.Title != "" {
			out = append(out, s)
		}
	}
	return out
}

func songFromObj(obj map[string]any) Song {
	s := Song{
		ID:        firstString(obj, "id", "song_id", "_id"),
		Title:     firstString(obj, "title", "name", "song_name"),
		Link:      firstString(obj, "link", "url", "perma_url"),
		Image:     firstString(obj, "image", "thumbnail", "cover"),
		StreamURL: firstString(obj, "stream", "stream_url", "audio", "audio_url", "download_url", "downloadUrl"),
	}

	artist := firstString(obj, "artist", "artists", "primaryArtists", "primary_artists", "subtitle", "song_artist")
	if artist == "" {
		artist = nestedArtist(obj)
	}
	s.Artist = cleanArtist(artist)

	// image and downloadUrl are sometimes [{quality, url}], best quality last
	if s.Image == "" {
		s.Image = lastURL(obj["image"])
	}
	if s.StreamURL == "" {
		if u := lastURL(obj["downloadUrl"]); u != "" {
			s.StreamURL = u
		} else {
			s.StreamURL = lastURL(obj["download_url"])
		}
	}
	return s
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok {
			return s
		}
	}
	return ""
}

func lastURL(v any) string {
	arr, ok := v.([]any)
	if !ok {
		return ""
	}
	var last string
	for _, it := range arr {
		if obj, ok := it.(map[string]any); ok {
			if u, ok := obj["url"].(string); ok && u != "" {
				last = u
			}
		}
	}
	return last
}

// nestedArtist handles artists: [{name}], artists: {primary|all: [{name}]}
// and primaryArtists: [{name}].
func nestedArtist(obj map[string]any) string {
	if name := firstName(obj["artists"]); name != "" {
		return name
	}
	if m, ok := obj["artists"].(map[string]any); ok {
		if name := firstName(m["primary"]); name != "" {
			return name
		}
		if name := firstName(m["all"]); name != "" {
			return name
		}
	}
	return firstName(obj["primaryArtists"])
}

func firstName(v any) string {
	arr, ok := v.([]any)
	if !ok {
		return ""
	}
	for _, it := range arr {
		if m, ok := it.(map[string]any); ok {
			if name, ok := m["name"].(string); ok && strings.TrimSpace(name) != "" {
				return strings.TrimSpace(name)
			}
		}
	}
	return ""
}

// cleanArtist trims "Artist • Album" and "Artist - Something" down to the artist.
func cleanArtist(s string) string {
	s = strings.TrimSpace(s)
	for _, sep := range []string{"•", " - "} {
		if before, _, found := strings.Cut(s, sep); found {
			return strings.TrimSpace(before)
		}
	}
	return s
}
