package musicapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"ghosttunes/internal/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search/songs", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "kesariya" {
			fmt.Fprint(w, `{"data":{"results":[]}}`)
			return
		}
		fmt.Fprint(w, `{"data":{"results":[
			{"id":"1","name":"Kesariya","primaryArtists":"Arijit Singh"},
			{"id":"2","name":"Kesariya (Remix)","downloadUrl":[{"url":"https://aac/2.mp4"}]},
			{"id":"3","name":"Kesariya (Lofi)","url":"https://site/3"}
		]}}`)
	})
	mux.HandleFunc("/api/songs/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"1","name":"Kesariya","downloadUrl":[{"url":"https://aac/1-96.mp4"},{"url":"https://aac/1-320.mp4"}]}]}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_SearchFillsStreamURL(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL+"/", "api", 0)

	tracks, err := c.Search(context.Background(), "kesariya", 2)
	require.NoError(t, err)
	assert.Equal(t, []media.Track{
		{Title: "Kesariya — Arijit Singh", URL: "https://aac/1-320.mp4"},
		{Title: "Kesariya (Remix)", URL: "https://aac/2.mp4"},
	}, tracks)
}

func TestClient_SearchNoResults(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "/api/", 0)

	tracks, err := c.Search(context.Background(), "unknown", 1)
	require.NoError(t, err)
	assert.Empty(t, tracks)
}

func TestClient_DropsSongsWithoutStream(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/search/songs", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id":"9","title":"Only Link","link":"https://site/9"},
			{"id":"8","title":"Nothing"},
			{"id":"7","title":"Playable","stream_url":"https://aac/7.mp4"}
		]`)
	})
	mux.HandleFunc("/api/songs/9", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"9","name":"Only Link","perma_url":"https://site/9"}}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	tracks, err := New(srv.URL, "api", 0).Search(context.Background(), "x", 5)
	require.NoError(t, err)
	assert.Equal(t, []media.Track{{Title: "Playable", URL: "https://aac/7.mp4"}}, tracks)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "api", 0).SearchSongs(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_RateLimitHonoursContext(t *testing.T) {
	srv := newTestServer(t)
	c := New(srv.URL, "api", 0.001)

	_, err := c.SearchSongs(context.Background(), "kesariya")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.SearchSongs(ctx, "kesariya")
	assert.Error(t, err)
}

func TestClient_Endpoint(t *testing.T) {
	c := New("https://music.example.com/base/", "/api/", 0)
	u, err := c.endpoint("songs", "42")
	require.NoError(t, err)
	assert.Equal(t, "https://music.example.com/base/api/songs/42", u.String())
}
