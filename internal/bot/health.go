package bot

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// StartHealthServer serves GET / with the number of live sessions.
func StartHealthServer(addr string, sessions func() int) *http.Server {
	srv := &http.Server{Addr: addr, Handler: healthHandler(sessions)}

	go func() {
		zlog.Info().Str("addr", addr).Msg("health server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error().Err(err).Msg("health server")
		}
	}()
	return srv
}

func healthHandler(sessions func() int) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"sessions": sessions(),
		})
	})
	return mux
}
