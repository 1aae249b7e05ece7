package kvstash

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMetricsGetSeedsDefaults(t *testing.T) {
	port := newStubPort()
	metrics := NewMetrics(port)
	ctx := context.Background()

	doc, err := metrics.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	for _, name := range defaultMetricNames {
		if got, ok := doc[name]; !ok || got != 0 {
			t.Fatalf("expected %q seeded to zero, got %d (present=%v)", name, got, ok)
		}
	}
	if port.putCount() != 1 {
		t.Fatalf("expected seed to persist once, puts=%d", port.putCount())
	}

	// The seed is idempotent: a second read finds the document and writes
	// nothing.
	if _, err := metrics.Get(ctx); err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if port.putCount() != 1 {
		t.Fatalf("expected no extra put on second get, puts=%d", port.putCount())
	}
}

func TestMetricsIncrementPersistsDocument(t *testing.T) {
	port := newStubPort()
	metrics := NewMetrics(port)
	ctx := context.Background()

	doc, err := metrics.Increment(ctx, "button-clicks")
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if doc["button-clicks"] != 1 {
		t.Fatalf("expected button-clicks=1, got %d", doc["button-clicks"])
	}
	doc, err = metrics.Increment(ctx, "button-clicks")
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if doc["button-clicks"] != 2 {
		t.Fatalf("expected button-clicks=2, got %d", doc["button-clicks"])
	}
	for _, name := range []string{"page-views", "feature-interactions", "user-signups"} {
		if doc[name] != 0 {
			t.Fatalf("expected %q untouched, got %d", name, doc[name])
		}
	}

	// The updated document is what a fresh store reads back.
	body, ok, err := port.Get(ctx, defaultMetricsKey)
	if err != nil || !ok {
		t.Fatalf("expected stored document: ok=%v err=%v", ok, err)
	}
	var stored Document
	if err := json.Unmarshal(body, &stored); err != nil {
		t.Fatalf("stored document is not valid json: %v", err)
	}
	if stored["button-clicks"] != 2 {
		t.Fatalf("expected persisted button-clicks=2, got %d", stored["button-clicks"])
	}
}

func TestMetricsIncrementRejectsUnknownName(t *testing.T) {
	port := newStubPort()
	metrics := NewMetrics(port)

	_, err := metrics.Increment(context.Background(), "cpu-temperature")
	if !errors.Is(err, ErrInvalidMetric) {
		t.Fatalf("expected ErrInvalidMetric, got %v", err)
	}
	if port.putCount() != 0 {
		t.Fatalf("expected rejected increment to leave the store untouched, puts=%d", port.putCount())
	}
}

func TestMetricsUnavailablePortServesDefaults(t *testing.T) {
	metrics := NewMetrics(NewUnavailablePort())
	ctx := context.Background()

	doc, err := metrics.Get(ctx)
	if err != nil {
		t.Fatalf("expected degraded get to succeed, got %v", err)
	}
	for _, name := range defaultMetricNames {
		if doc[name] != 0 {
			t.Fatalf("expected default zero for %q, got %d", name, doc[name])
		}
	}

	doc, err = metrics.Increment(ctx, "page-views")
	if err != nil {
		t.Fatalf("expected degraded increment to succeed, got %v", err)
	}
	if doc["page-views"] != 1 {
		t.Fatalf("expected in-memory increment, got %d", doc["page-views"])
	}

	// Unknown names are still rejected while degraded.
	if _, err := metrics.Increment(ctx, "nope"); !errors.Is(err, ErrInvalidMetric) {
		t.Fatalf("expected ErrInvalidMetric while degraded, got %v", err)
	}
}

func TestMetricsAtomicModeUsesCounterKeys(t *testing.T) {
	port := NewMemoryPort(context.Background())
	if _, ok := port.(Incrementer); !ok {
		t.Fatalf("memory port should implement Incrementer")
	}
	metrics := NewMetrics(port)
	ctx := context.Background()

	doc, err := metrics.Increment(ctx, "user-signups")
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if doc["user-signups"] != 1 {
		t.Fatalf("expected user-signups=1, got %d", doc["user-signups"])
	}

	// Counters live under per-metric keys, not the shared document key.
	body, ok, err := port.Get(ctx, defaultMetricsKey+":user-signups")
	if err != nil || !ok || string(body) != "1" {
		t.Fatalf("expected counter key with value 1, got ok=%v body=%q err=%v", ok, string(body), err)
	}
	if _, ok, _ := port.Get(ctx, defaultMetricsKey); ok {
		t.Fatalf("expected no shared document in atomic mode")
	}

	doc, err = metrics.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc["user-signups"] != 1 || doc["button-clicks"] != 0 {
		t.Fatalf("unexpected document: %v", doc)
	}
}

func TestMetricsMalformedDocumentReseeded(t *testing.T) {
	port := newStubPort()
	metrics := NewMetrics(port)
	ctx := context.Background()

	if err := port.Put(ctx, defaultMetricsKey, []byte("][ junk")); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	doc, err := metrics.Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	for _, name := range defaultMetricNames {
		if doc[name] != 0 {
			t.Fatalf("expected reseeded zero for %q, got %d", name, doc[name])
		}
	}
	body, ok, err := port.Get(ctx, defaultMetricsKey)
	if err != nil || !ok {
		t.Fatalf("expected repaired document: ok=%v err=%v", ok, err)
	}
	var stored Document
	if err := json.Unmarshal(body, &stored); err != nil {
		t.Fatalf("repaired document is not valid json: %v", err)
	}
}

func TestMetricsDocumentGainsNewAllowedNames(t *testing.T) {
	port := newStubPort()
	ctx := context.Background()

	// A document written before "user-signups" joined the allow-list.
	old := Document{"button-clicks": 4}
	body, err := json.Marshal(old)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if err := port.Put(ctx, defaultMetricsKey, body); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	doc, err := NewMetrics(port).Get(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if doc["button-clicks"] != 4 {
		t.Fatalf("expected stored count preserved, got %d", doc["button-clicks"])
	}
	if got, ok := doc["user-signups"]; !ok || got != 0 {
		t.Fatalf("expected missing name filled with zero, got %d (present=%v)", got, ok)
	}
}

func TestMetricsCustomAllowList(t *testing.T) {
	metrics := NewMetricsWith(newStubPort(), "ops-data", []string{"deploys", "rollbacks"})
	ctx := context.Background()

	if !metrics.Allowed("deploys") || metrics.Allowed("button-clicks") {
		t.Fatalf("allow-list not honored")
	}

	doc, err := metrics.Increment(ctx, "rollbacks")
	if err != nil {
		t.Fatalf("increment failed: %v", err)
	}
	if doc["rollbacks"] != 1 || doc["deploys"] != 0 {
		t.Fatalf("unexpected document: %v", doc)
	}
	if _, err := metrics.Increment(ctx, "page-views"); !errors.Is(err, ErrInvalidMetric) {
		t.Fatalf("expected default names rejected under custom list, got %v", err)
	}
}
