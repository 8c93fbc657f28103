package tracking

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/poki/tracking/internal/util"
)

// BuildEventURL returns the tracking URL for event name. It performs no I/O.
//
// The token is always the client's own. time defaults to now and, when req
// knows a remote address, ip and distinct_id default to it. Properties are
// copied, the caller's map is left untouched.
func (c *Client) BuildEventURL(ctx context.Context, name string, props Properties, params Params, req RemoteAddressProvider) (string, error) {
	eventProps := props.clone(4)
	eventProps["token"] = c.token
	if !props.present("time") {
		eventProps["time"] = util.NowUTC(ctx).Unix()
	}
	if req != nil {
		if addr := req.RemoteAddr(); addr != "" {
			if !props.present("ip") {
				eventProps["ip"] = addr
			}
			if !props.present("distinct_id") {
				eventProps["distinct_id"] = addr
			}
		}
	}

	data, err := json.Marshal(payload{Event: name, Properties: eventProps})
	if err != nil {
		return "", fmt.Errorf("failed to encode event %q: %w", name, err)
	}
	encoded := strings.Join(strings.Fields(base64.StdEncoding.EncodeToString(data)), "")

	var query strings.Builder
	query.WriteString("data=")
	query.WriteString(url.QueryEscape(encoded))
	for _, p := range params {
		if p.Key == "data" {
			continue
		}
		query.WriteByte('&')
		query.WriteString(url.QueryEscape(p.Key))
		query.WriteByte('=')
		query.WriteString(url.QueryEscape(p.Value))
	}

	return c.endpoint + "/track/?" + query.String(), nil
}

// BuildFunnelURL returns the tracking URL for reaching step of funnel towards
// goal. funnel, step and goal replace caller properties of the same name.
func (c *Client) BuildFunnelURL(ctx context.Context, funnel string, step int, goal string, props Properties, params Params, req RemoteAddressProvider) (string, error) {
	funnelProps := props.clone(3)
	funnelProps["funnel"] = funnel
	funnelProps["step"] = step
	funnelProps["goal"] = goal
	return c.BuildEventURL(ctx, FunnelEvent, funnelProps, params, req)
}
