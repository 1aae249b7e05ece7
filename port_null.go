package kvstash

import "context"

// nullPort accepts writes and always misses on reads. Useful for disabling
// caching/metrics persistence without changing call sites.
type nullPort struct{}

func newNullPort() Port { return &nullPort{} }

func (p *nullPort) Driver() Driver { return DriverNull }

func (p *nullPort) Ready(context.Context) error { return nil }

func (p *nullPort) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (p *nullPort) Put(context.Context, string, []byte) error {
	return nil
}
