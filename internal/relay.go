package internal

import (
	"net/http"

	"github.com/poki/tracking/internal/relay"
	"github.com/poki/tracking/internal/util"
	"github.com/poki/tracking/tracking"
)

func Relay(client *tracking.Client) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/track", tracking.Middleware(relay.Handler(), client))

	healthCheck := func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/health" {
			util.ErrorAndAbort(w, r, http.StatusNotFound, "not-found")
		}
		util.RenderJSON(w, r, http.StatusOK, map[string]bool{"healthy": true})
	}
	mux.HandleFunc("/health", healthCheck)
	mux.HandleFunc("/", healthCheck)

	return mux
}
