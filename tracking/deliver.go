package tracking

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/xid"
	"go.uber.org/zap"
)

// deliver posts the query of rawURL as a form body to its path. Failures are
// logged once with the URL and reported as false, never retried.
func (c *Client) deliver(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		c.logger.Error("failed to log event", zap.String("url", rawURL), zap.Error(err))
		return false
	}
	target := url.URL{Scheme: u.Scheme, Host: u.Host, Path: u.Path}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), strings.NewReader(u.RawQuery))
	if err != nil {
		c.logger.Error("failed to log event", zap.String("url", rawURL), zap.Error(err))
		return false
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Idempotency-ID", xid.New().String())

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("failed to log event", zap.String("url", rawURL), zap.Error(err))
		return false
	}
	io.Copy(io.Discard, resp.Body) //nolint:errcheck
	resp.Body.Close()              //nolint:errcheck

	if resp.StatusCode/100 != 2 {
		c.logger.Error("failed to log event", zap.String("url", rawURL), zap.Int("status", resp.StatusCode))
		return false
	}
	return true
}
