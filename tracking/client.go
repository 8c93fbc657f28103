package tracking

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	DefaultHTTPSEndpoint = "https://api.mixpanel.com"
	DefaultHTTPEndpoint  = "http://api.mixpanel.com"
)

// Options configures a Client. The zero value delivers over HTTPS to the
// default endpoint and logs failures to stderr.
type Options struct {
	// DisableSSL sends events to HTTPEndpoint instead of HTTPSEndpoint.
	DisableSSL bool

	// Logger receives one error entry per failed delivery.
	Logger *zap.Logger

	HTTPSEndpoint string
	HTTPEndpoint  string

	// HTTPClient overrides the transport used for delivery.
	HTTPClient *http.Client
}

// Client records events and funnel steps for a single project token. It holds
// no mutable state and is safe for concurrent use.
type Client struct {
	token    string
	ssl      bool
	endpoint string
	logger   *zap.Logger
	client   *http.Client
}

// NewClient returns a Client recording events for the project token.
func NewClient(token string, opts Options) *Client {
	c := &Client{
		token:  token,
		ssl:    !opts.DisableSSL,
		logger: opts.Logger,
		client: opts.HTTPClient,
	}
	if c.ssl {
		c.endpoint = opts.HTTPSEndpoint
		if c.endpoint == "" {
			c.endpoint = DefaultHTTPSEndpoint
		}
	} else {
		c.endpoint = opts.HTTPEndpoint
		if c.endpoint == "" {
			c.endpoint = DefaultHTTPEndpoint
		}
	}
	if c.logger == nil {
		c.logger = stderrLogger(zapcore.Lock(os.Stderr))
	}
	if c.client == nil {
		c.client = &http.Client{Transport: newTransport(c.ssl)}
	}
	return c
}

// newTransport keeps the default dial and TLS handshake timeouts but opens
// a connection per request.
func newTransport(ssl bool) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.DisableKeepAlives = true
	t.TLSClientConfig = &tls.Config{
		InsecureSkipVerify: ssl, //nolint:gosec
	}
	return t
}

func stderrLogger(w zapcore.WriteSyncer) *zap.Logger {
	encoder := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())
	return zap.New(zapcore.NewCore(encoder, w, zap.ErrorLevel))
}

// Record records name as a plain event, as a funnel goal, or both.
//
// Without opts.Funnel a plain event is recorded. With opts.Funnel a funnel
// step is recorded using name as the goal, and the plain event is recorded
// as well only when opts.Event is set. The result is true when every
// submission was delivered.
func (c *Client) Record(ctx context.Context, name string, props Properties, opts RecordOptions, req RemoteAddressProvider) (bool, error) {
	ok := true
	if opts.Funnel == nil || opts.Event {
		delivered, err := c.RecordEvent(ctx, name, props, req)
		if err != nil {
			return false, err
		}
		ok = ok && delivered
	}
	if opts.Funnel != nil {
		delivered, err := c.RecordFunnel(ctx, opts.Funnel.Name, opts.Funnel.Step, name, props, req)
		if err != nil {
			return false, err
		}
		ok = ok && delivered
	}
	return ok, nil
}

// RecordEvent records a plain event and reports whether it was delivered.
func (c *Client) RecordEvent(ctx context.Context, name string, props Properties, req RemoteAddressProvider) (bool, error) {
	url, err := c.BuildEventURL(ctx, name, props, nil, req)
	if err != nil {
		return false, err
	}
	return c.deliver(ctx, url), nil
}

// RecordFunnel records reaching step of funnel towards goal.
func (c *Client) RecordFunnel(ctx context.Context, funnel string, step int, goal string, props Properties, req RemoteAddressProvider) (bool, error) {
	url, err := c.BuildFunnelURL(ctx, funnel, step, goal, props, nil, req)
	if err != nil {
		return false, err
	}
	return c.deliver(ctx, url), nil
}
