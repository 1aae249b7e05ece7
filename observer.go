package kvstash

import (
	"context"
	"time"
)

// Observer receives events for component operations, including degraded
// outcomes that are otherwise swallowed (unavailable port, malformed stored
// values, best-effort write failures).
type Observer interface {
	OnOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver Driver)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver Driver)

// OnOp implements Observer.
func (f ObserverFunc) OnOp(ctx context.Context, op string, key string, hit bool, err error, dur time.Duration, driver Driver) {
	if f == nil {
		return
	}
	f(ctx, op, key, hit, err, dur, driver)
}
