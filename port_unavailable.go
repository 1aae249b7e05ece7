package kvstash

import (
	"context"
	"errors"
	"fmt"
)

// unavailablePort is returned when a binding is missing or a driver fails to
// initialize; it preserves the driver identity while surfacing the error on
// every call. This keeps "binding not configured" observable and distinct
// from an empty store.
type unavailablePort struct {
	driver Driver
	err    error
}

func newUnavailablePort(driver Driver, err error) Port {
	switch {
	case err == nil:
		err = ErrPortUnavailable
	case !errors.Is(err, ErrPortUnavailable):
		// Callers match on the sentinel; keep the init cause readable.
		err = fmt.Errorf("%w: %v", ErrPortUnavailable, err)
	}
	return &unavailablePort{driver: driver, err: err}
}

func (p *unavailablePort) Driver() Driver { return p.driver }

func (p *unavailablePort) Ready(context.Context) error { return p.err }

func (p *unavailablePort) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, p.err
}

func (p *unavailablePort) Put(context.Context, string, []byte) error {
	return p.err
}
