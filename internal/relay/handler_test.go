package relay_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/koenbollen/logging"
	"github.com/poki/tracking/internal"
	"github.com/poki/tracking/tracking"
	"go.uber.org/zap"
)

type endpoint struct {
	mu     sync.Mutex
	events []map[string]any
}

func newEndpoint(t *testing.T, status int) (*endpoint, *tracking.Client) {
	t.Helper()
	e := &endpoint{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		if err != nil {
			t.Errorf("invalid body %q: %v", body, err)
		}
		data, _ := base64.StdEncoding.DecodeString(form.Get("data"))
		var event map[string]any
		if err := json.Unmarshal(data, &event); err != nil {
			t.Errorf("invalid payload %q: %v", data, err)
		}
		e.mu.Lock()
		e.events = append(e.events, event)
		e.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	client := tracking.NewClient("abc", tracking.Options{
		DisableSSL:   true,
		HTTPEndpoint: server.URL,
		Logger:       zap.NewNop(),
	})
	return e, client
}

// serve runs the request through the relay, recovering the abort panic the
// way net/http does.
func serve(handler http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	r = r.WithContext(logging.WithLogger(context.Background(), zap.NewNop()))
	func() {
		defer func() {
			if v := recover(); v != nil && v != http.ErrAbortHandler {
				panic(v)
			}
		}()
		handler.ServeHTTP(rr, r)
	}()
	return rr
}

func TestRelay_Track(t *testing.T) {
	e, client := newEndpoint(t, http.StatusOK)
	handler := internal.Relay(client)

	body := `{"event":"Landing","properties":{"level":3},"funnel":{"name":"Signup","step":1},"also_event":true}`
	r := httptest.NewRequest(http.MethodPost, "/track", strings.NewReader(body))
	r.RemoteAddr = "192.168.1.1:12345"
	rr := serve(handler, r)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d: %s", http.StatusNoContent, rr.Code, rr.Body.String())
	}
	if len(e.events) != 2 {
		t.Fatalf("got %d events, want 2", len(e.events))
	}
	if e.events[0]["event"] != "Landing" || e.events[1]["event"] != tracking.FunnelEvent {
		t.Errorf("unexpected events %v", e.events)
	}
	for _, event := range e.events {
		props := event["properties"].(map[string]any)
		if props["ip"] != "192.168.1.1" || props["distinct_id"] != "192.168.1.1" {
			t.Errorf("remote address not applied: %v", props)
		}
		if props["level"] != float64(3) {
			t.Errorf("level = %v, want 3", props["level"])
		}
	}
}

func TestRelay_CallerDisconnects(t *testing.T) {
	var delivered sync.WaitGroup
	delivered.Add(1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer delivered.Done()
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	client := tracking.NewClient("abc", tracking.Options{
		DisableSSL:   true,
		HTTPEndpoint: server.URL,
		Logger:       zap.NewNop(),
	})

	ctx, cancel := context.WithCancel(logging.WithLogger(context.Background(), zap.NewNop()))
	defer cancel()
	time.AfterFunc(50*time.Millisecond, cancel)

	r := httptest.NewRequest(http.MethodPost, "/track", strings.NewReader(`{"event":"Landing"}`)).WithContext(ctx)
	rr := httptest.NewRecorder()
	func() {
		defer func() {
			if v := recover(); v != nil {
				t.Errorf("unexpected abort: %v", v)
			}
		}()
		internal.Relay(client).ServeHTTP(rr, r)
	}()
	delivered.Wait()

	if rr.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d: %s", http.StatusNoContent, rr.Code, rr.Body.String())
	}
}

func TestRelay_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		status int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"not json", http.MethodPost, "event=Landing", http.StatusBadRequest},
		{"missing event", http.MethodPost, `{"properties":{}}`, http.StatusBadRequest},
		{"missing funnel name", http.MethodPost, `{"event":"Landing","funnel":{"step":1}}`, http.StatusBadRequest},
		{"funnel step zero", http.MethodPost, `{"event":"Landing","funnel":{"name":"Signup","step":0}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, client := newEndpoint(t, http.StatusOK)
			r := httptest.NewRequest(tt.method, "/track", strings.NewReader(tt.body))
			rr := serve(internal.Relay(client), r)

			if rr.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, rr.Code)
			}
			if len(e.events) != 0 {
				t.Errorf("got %d events, want none", len(e.events))
			}
		})
	}
}

func TestRelay_DeliveryFailed(t *testing.T) {
	_, client := newEndpoint(t, http.StatusInternalServerError)
	r := httptest.NewRequest(http.MethodPost, "/track", strings.NewReader(`{"event":"Landing"}`))
	rr := serve(internal.Relay(client), r)

	if rr.Code != http.StatusBadGateway {
		t.Errorf("expected status %d, got %d", http.StatusBadGateway, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "delivery-failed") {
		t.Errorf("unexpected body %q", rr.Body.String())
	}
}

func TestRelay_Health(t *testing.T) {
	_, client := newEndpoint(t, http.StatusOK)
	for _, path := range []string{"/", "/health"} {
		rr := serve(internal.Relay(client), httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, rr.Code)
		}
		if rr.Body.String() != "{\"healthy\":true}\n" {
			t.Errorf("%s: unexpected body %q", path, rr.Body.String())
		}
	}
	rr := serve(internal.Relay(client), httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}
