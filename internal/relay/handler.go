package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/koenbollen/logging"
	"github.com/poki/tracking/internal/util"
	"github.com/poki/tracking/tracking"
	"go.uber.org/zap"
)

const maxBodySize = 64 << 10

type TrackRequest struct {
	Event      string              `json:"event"`
	Properties tracking.Properties `json:"properties,omitempty"`
	Funnel     *FunnelStep         `json:"funnel,omitempty"`
	AlsoEvent  bool                `json:"also_event,omitempty"`
}

type FunnelStep struct {
	Name string `json:"name"`
	Step int    `json:"step"`
}

func (t TrackRequest) validate() error {
	if t.Event == "" {
		return errors.New("event is required")
	}
	if t.Funnel != nil {
		if t.Funnel.Name == "" {
			return errors.New("funnel name is required")
		}
		if t.Funnel.Step < 1 {
			return errors.New("funnel step must be at least 1")
		}
	}
	return nil
}

// Handler forwards tracking calls to the client attached by
// tracking.Middleware, on behalf of the caller's remote address.
func Handler() http.HandlerFunc {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := logging.GetLogger(ctx)

		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			util.ErrorAndAbort(w, r, http.StatusMethodNotAllowed, "")
		}

		var req TrackRequest
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
		decoder.UseNumber()
		if err := decoder.Decode(&req); err != nil {
			util.ErrorAndAbort(w, r, http.StatusBadRequest, "invalid-body", err)
		}
		if err := req.validate(); err != nil {
			util.ErrorAndAbort(w, r, http.StatusBadRequest, "invalid-event", err)
		}

		opts := tracking.RecordOptions{Event: req.AlsoEvent}
		if req.Funnel != nil {
			opts.Funnel = &tracking.Funnel{Name: req.Funnel.Name, Step: req.Funnel.Step}
		}

		// Callers often leave right after firing an event, delivery must outlive them.
		ok, err := tracking.Record(context.WithoutCancel(ctx), req.Event, req.Properties, opts)
		if err != nil {
			util.ErrorAndAbort(w, r, http.StatusBadRequest, "invalid-properties", err)
		}
		if !ok {
			logger.Warn("failed to relay event", zap.String("event", req.Event))
			util.ErrorAndAbort(w, r, http.StatusBadGateway, "delivery-failed")
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
