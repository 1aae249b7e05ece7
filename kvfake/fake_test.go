package kvfake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/edgekit/kvstash"
)

func TestFakeRecordsCalls(t *testing.T) {
	fake := New()
	port := fake.Port()
	ctx := context.Background()

	if err := port.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if _, _, err := port.Get(ctx, "k"); err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if _, _, err := port.Get(ctx, "k"); err != nil {
		t.Fatalf("get failed: %v", err)
	}

	fake.AssertCalled(t, OpPut, "k", 1)
	fake.AssertCalled(t, OpGet, "k", 2)
	fake.AssertNotCalled(t, OpGet, "other")
	fake.AssertTotal(t, OpGet, 2)

	fake.Reset()
	fake.AssertTotal(t, OpGet, 0)
}

func TestFakeFailureInjection(t *testing.T) {
	fake := New()
	port := fake.Port()
	ctx := context.Background()

	fake.FailWith(kvstash.ErrPortUnavailable)
	if _, _, err := port.Get(ctx, "k"); !errors.Is(err, kvstash.ErrPortUnavailable) {
		t.Fatalf("expected injected failure, got %v", err)
	}
	if err := port.Ready(ctx); !errors.Is(err, kvstash.ErrPortUnavailable) {
		t.Fatalf("expected injected failure from Ready, got %v", err)
	}

	fake.FailWith(nil)
	if err := port.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("expected healed port, got %v", err)
	}
}

func TestFakePortImplementsIncrementer(t *testing.T) {
	fake := New()
	inc, ok := fake.Port().(kvstash.Incrementer)
	if !ok {
		t.Fatalf("fake port should implement Incrementer")
	}
	if n, err := inc.Increment(context.Background(), "c", 4); err != nil || n != 4 {
		t.Fatalf("increment failed: n=%d err=%v", n, err)
	}
	fake.AssertCalled(t, OpInc, "c", 1)
}

func TestFakePlainPortHidesIncrementer(t *testing.T) {
	fake := New()
	plain := fake.PlainPort()
	if _, ok := plain.(kvstash.Incrementer); ok {
		t.Fatalf("plain port must not implement Incrementer")
	}

	// The plain view shares state and recording with the full port.
	ctx := context.Background()
	if err := plain.Put(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	body, ok, err := fake.Port().Get(ctx, "k")
	if err != nil || !ok || string(body) != "v" {
		t.Fatalf("expected shared state: ok=%v body=%q err=%v", ok, string(body), err)
	}
	fake.AssertCalled(t, OpPut, "k", 1)
}

func TestFakeDrivesDocumentMetrics(t *testing.T) {
	fake := New()
	metrics := kvstash.NewMetrics(fake.PlainPort())
	ctx := context.Background()

	if _, err := metrics.Increment(ctx, "button-clicks"); err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	// Document mode: the read seeds and persists the absent document, then
	// the increment writes it again. No counter ops on a plain port.
	fake.AssertCalled(t, OpGet, "analytics-data", 1)
	fake.AssertCalled(t, OpPut, "analytics-data", 2)
	fake.AssertTotal(t, OpInc, 0)
}

func TestFakeDrivesCacheDegradation(t *testing.T) {
	fake := New()
	cache := kvstash.NewCache(fake.Port())
	ctx := context.Background()

	fake.FailWith(kvstash.ErrPortUnavailable)
	value, err := cache.GetOrCompute(ctx, "k", time.Minute, func(context.Context) ([]byte, error) {
		return []byte("direct"), nil
	})
	if err != nil || string(value) != "direct" {
		t.Fatalf("expected degraded compute: value=%q err=%v", value, err)
	}
	// Unavailable binding: the cache must not attempt a write-back.
	fake.AssertNotCalled(t, OpPut, "k")
}
