package tracking

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// RemoteAddressProvider exposes the address of the client an event is
// recorded for. An empty address is treated as unknown.
type RemoteAddressProvider interface {
	RemoteAddr() string
}

// Addr is a fixed remote address.
type Addr string

func (a Addr) RemoteAddr() string { return string(a) }

// FromRequest returns the remote address of r, preferring the first
// X-Forwarded-For hop. Ports are stripped.
func FromRequest(r *http.Request) RemoteAddressProvider {
	remoteAddr := r.RemoteAddr
	if r.Header.Get("X-Forwarded-For") != "" {
		remoteAddr = strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-For"), ",")[0])
	}
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		remoteAddr = host
	}
	return Addr(remoteAddr)
}

type trackingContextKey int

var clientKey = trackingContextKey(0)
var remoteAddrKey = trackingContextKey(1)

// Middleware attaches client and the caller's remote address to every
// request context, for use by the package level Record.
func Middleware(next http.Handler, client *Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ctx = context.WithValue(ctx, clientKey, client)
		ctx = context.WithValue(ctx, remoteAddrKey, FromRequest(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the remote address stored by Middleware, or nil.
func FromContext(ctx context.Context) RemoteAddressProvider {
	if addr, ok := ctx.Value(remoteAddrKey).(RemoteAddressProvider); ok {
		return addr
	}
	return nil
}

// Record records through the client attached by Middleware. It returns false
// when no client is attached.
func Record(ctx context.Context, name string, props Properties, opts RecordOptions) (bool, error) {
	if client, ok := ctx.Value(clientKey).(*Client); ok {
		return client.Record(ctx, name, props, opts, FromContext(ctx))
	}
	return false, nil
}
