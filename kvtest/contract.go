package kvtest

import (
	"context"
	"strings"
	"testing"

	"github.com/edgekit/kvstash"
)

// Options configures shared port contract checks.
type Options struct {
	// CaseName is used to namespace keys. Defaults to t.Name().
	CaseName string
	// NullSemantics enables relaxed expectations for the null port.
	NullSemantics bool
	// SkipCloneCheck disables the "get returns a cloned value" assertion.
	SkipCloneCheck bool
}

// RunPortContract runs a backend-agnostic port contract suite.
func RunPortContract(t *testing.T, port kvstash.Port, opts Options) {
	t.Helper()

	caseName := opts.CaseName
	if caseName == "" {
		caseName = t.Name()
	}
	ctx := context.Background()
	key := func(s string) string {
		return sanitize(caseName) + ":" + s
	}

	if err := port.Ready(ctx); err != nil {
		t.Fatalf("expected port to be ready: %v", err)
	}

	// Absent key is a miss, never an error.
	if _, ok, err := port.Get(ctx, key("missing")); err != nil || ok {
		t.Fatalf("expected clean miss for absent key: ok=%v err=%v", ok, err)
	}

	// Put/Get round-trip.
	if err := port.Put(ctx, key("alpha"), []byte("value")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	body, ok, err := port.Get(ctx, key("alpha"))
	if err != nil {
		t.Fatalf("get failed: ok=%v err=%v", ok, err)
	}
	if opts.NullSemantics {
		if ok {
			t.Fatalf("expected miss for null semantics")
		}
	} else {
		if !ok || string(body) != "value" {
			t.Fatalf("unexpected get result: ok=%v body=%q err=%v", ok, string(body), err)
		}
		if !opts.SkipCloneCheck {
			body[0] = 'X'
			body2, ok2, err2 := port.Get(ctx, key("alpha"))
			if err2 != nil || !ok2 || string(body2) != "value" {
				t.Fatalf("expected stored value unchanged, got ok=%v body=%q err=%v", ok2, string(body2), err2)
			}
		}

		// Put overwrites.
		if err := port.Put(ctx, key("alpha"), []byte("updated")); err != nil {
			t.Fatalf("overwrite failed: %v", err)
		}
		body, ok, err = port.Get(ctx, key("alpha"))
		if err != nil || !ok || string(body) != "updated" {
			t.Fatalf("expected overwritten value, got ok=%v body=%q err=%v", ok, string(body), err)
		}
	}

	if inc, isInc := port.(kvstash.Incrementer); isInc && !opts.NullSemantics {
		val, err := inc.Increment(ctx, key("counter"), 3)
		if err != nil || val != 3 {
			t.Fatalf("increment from zero failed: val=%d err=%v", val, err)
		}
		val, err = inc.Increment(ctx, key("counter"), 2)
		if err != nil || val != 5 {
			t.Fatalf("increment accumulate failed: val=%d err=%v", val, err)
		}
		body, ok, err := port.Get(ctx, key("counter"))
		if err != nil || !ok || string(body) != "5" {
			t.Fatalf("expected counter readable as decimal, got ok=%v body=%q err=%v", ok, string(body), err)
		}
	}
}

func sanitize(name string) string {
	replacer := strings.NewReplacer("/", "_", " ", "_")
	return replacer.Replace(name)
}
