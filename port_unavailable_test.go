package kvstash

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestUnavailablePortSurfacesError(t *testing.T) {
	port := NewUnavailablePort()
	ctx := context.Background()

	if err := port.Ready(ctx); !errors.Is(err, ErrPortUnavailable) {
		t.Fatalf("expected ErrPortUnavailable from Ready, got %v", err)
	}
	if _, ok, err := port.Get(ctx, "k"); ok || !errors.Is(err, ErrPortUnavailable) {
		t.Fatalf("expected ErrPortUnavailable from Get, got ok=%v err=%v", ok, err)
	}
	if err := port.Put(ctx, "k", []byte("v")); !errors.Is(err, ErrPortUnavailable) {
		t.Fatalf("expected ErrPortUnavailable from Put, got %v", err)
	}
}

func TestUnavailablePortPreservesDriverAndCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	port := newUnavailablePort(DriverRedis, cause)

	if port.Driver() != DriverRedis {
		t.Fatalf("expected failed driver identity preserved, got %q", port.Driver())
	}
	err := port.Ready(context.Background())
	if !errors.Is(err, ErrPortUnavailable) {
		t.Fatalf("expected init error to match ErrPortUnavailable, got %v", err)
	}
	if !strings.Contains(err.Error(), cause.Error()) {
		t.Fatalf("expected init cause readable in %q", err)
	}
}

func TestUnavailablePortKeepsSentinelErrorsUnwrapped(t *testing.T) {
	port := newUnavailablePort(DriverSQL, ErrPortUnavailable)
	if err := port.Ready(context.Background()); err != ErrPortUnavailable {
		t.Fatalf("expected bare sentinel preserved, got %v", err)
	}
}
