package kvstash

import "errors"

var (
	// ErrPortUnavailable reports that the key-value binding was never
	// configured or cannot be reached. Components treat it as a signal to
	// degrade: the cache computes directly, the metric store serves
	// defaults.
	ErrPortUnavailable = errors.New("kvstash: key-value port unavailable")

	// ErrInvalidMetric reports an increment for a name outside the
	// configured allow-list. It is the only component failure surfaced to
	// callers as a hard error.
	ErrInvalidMetric = errors.New("kvstash: metric name not in allow-list")
)
