package util

import (
	"context"
	"time"
)

type timeContextKey int

var nowKey = timeContextKey(0)

// WithTime pins the time returned by NowUTC for ctx.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, nowKey, t)
}

func NowUTC(ctx context.Context) time.Time {
	if t, ok := ctx.Value(nowKey).(time.Time); ok {
		return t.UTC()
	}
	return time.Now().UTC()
}
