// Package kvfake provides a deterministic in-memory Port plus assertion
// helpers for tests, so code built on kvstash can be exercised without
// external services.
package kvfake

import (
	"context"
	"sync"
	"testing"

	"github.com/edgekit/kvstash"
)

// Op identifies a port operation for assertions.
type Op string

const (
	OpReady Op = "ready"
	OpGet   Op = "get"
	OpPut   Op = "put"
	OpInc   Op = "inc"
)

// Fake wraps an in-memory port and records every call against it.
type Fake struct {
	port   *countingPort
	counts map[Op]map[string]int
	mu     sync.Mutex
}

// New creates a Fake backed by an in-memory port.
func New() *Fake {
	f := &Fake{counts: make(map[Op]map[string]int)}
	f.port = &countingPort{
		inner:   kvstash.NewMemoryPort(context.Background()),
		onCount: f.record,
	}
	return f
}

// Port returns the port to inject into code under test. It implements
// kvstash.Incrementer.
func (f *Fake) Port() kvstash.Port { return f.port }

// PlainPort returns the same recording port without the Incrementer
// capability, for exercising document read-modify-write code paths.
func (f *Fake) PlainPort() kvstash.Port { return plainPort{inner: f.port} }

// plainPort hides the Increment method so capability assertions fail.
type plainPort struct{ inner *countingPort }

func (p plainPort) Driver() kvstash.Driver { return p.inner.Driver() }

func (p plainPort) Ready(ctx context.Context) error { return p.inner.Ready(ctx) }

func (p plainPort) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return p.inner.Get(ctx, key)
}

func (p plainPort) Put(ctx context.Context, key string, value []byte) error {
	return p.inner.Put(ctx, key, value)
}

// FailWith makes every subsequent call return err; pass nil to heal. Use
// kvstash.ErrPortUnavailable to simulate a missing binding.
func (f *Fake) FailWith(err error) {
	f.port.mu.Lock()
	defer f.port.mu.Unlock()
	f.port.err = err
}

// Reset clears recorded counts.
func (f *Fake) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts = make(map[Op]map[string]int)
}

// AssertCalled verifies key was touched by op the expected number of times.
func (f *Fake) AssertCalled(t *testing.T, op Op, key string, times int) {
	t.Helper()
	if got := f.Count(op, key); got != times {
		t.Fatalf("expected %s %q called %d times, got %d", op, key, times, got)
	}
}

// AssertNotCalled ensures key was never touched by op.
func (f *Fake) AssertNotCalled(t *testing.T, op Op, key string) {
	t.Helper()
	if got := f.Count(op, key); got != 0 {
		t.Fatalf("expected %s %q not called, got %d", op, key, got)
	}
}

// AssertTotal ensures the total call count for an op matches times.
func (f *Fake) AssertTotal(t *testing.T, op Op, times int) {
	t.Helper()
	if got := f.Total(op); got != times {
		t.Fatalf("expected %s total=%d, got %d", op, times, got)
	}
}

// Count returns calls for op+key.
func (f *Fake) Count(op Op, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[op] == nil {
		return 0
	}
	return f.counts[op][key]
}

// Total returns total calls for an op across keys.
func (f *Fake) Total(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var sum int
	for _, v := range f.counts[op] {
		sum += v
	}
	return sum
}

func (f *Fake) record(op Op, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts[op] == nil {
		f.counts[op] = make(map[string]int)
	}
	f.counts[op][key]++
}

// countingPort wraps a Port to record calls and optionally inject failures.
type countingPort struct {
	inner   kvstash.Port
	onCount func(Op, string)

	mu  sync.Mutex
	err error
}

func (p *countingPort) failure() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *countingPort) Driver() kvstash.Driver { return p.inner.Driver() }

func (p *countingPort) Ready(ctx context.Context) error {
	p.onCount(OpReady, "")
	if err := p.failure(); err != nil {
		return err
	}
	return p.inner.Ready(ctx)
}

func (p *countingPort) Get(ctx context.Context, key string) ([]byte, bool, error) {
	p.onCount(OpGet, key)
	if err := p.failure(); err != nil {
		return nil, false, err
	}
	return p.inner.Get(ctx, key)
}

func (p *countingPort) Put(ctx context.Context, key string, value []byte) error {
	p.onCount(OpPut, key)
	if err := p.failure(); err != nil {
		return err
	}
	return p.inner.Put(ctx, key, value)
}

func (p *countingPort) Increment(ctx context.Context, key string, delta int64) (int64, error) {
	p.onCount(OpInc, key)
	if err := p.failure(); err != nil {
		return 0, err
	}
	return p.inner.(kvstash.Incrementer).Increment(ctx, key, delta)
}
