package kvstash

import "context"

// Port is the key-value binding supplied by the hosting environment.
//
// Absence of a key is a normal outcome (ok=false, err=nil), never an error.
// Put failures indicate transient backend faults. An unconfigured or
// unreachable binding surfaces ErrPortUnavailable from every call and from
// Ready, keeping it distinct from an empty store.
type Port interface {
	// Driver reports the backend identity.
	Driver() Driver

	// Ready reports whether the binding is usable. A nil error means the
	// backend can be reached; ErrPortUnavailable means the binding was
	// never configured or cannot be reached.
	Ready(ctx context.Context) error

	// Get returns the value stored under key when present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error
}

// Incrementer is an optional Port capability for backends that offer an
// atomic add on a decimal-encoded counter key. Components that detect it
// prefer per-counter atomic updates over document read-modify-write.
type Incrementer interface {
	Increment(ctx context.Context, key string, delta int64) (int64, error)
}

func cloneBytes(value []byte) []byte {
	if value == nil {
		return nil
	}
	clone := make([]byte, len(value))
	copy(clone, value)
	return clone
}
