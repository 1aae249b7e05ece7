package kvstash

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Document maps metric names to non-negative counts. Every allow-listed
// name is always present.
type Document map[string]int64

// Metrics persists named counters in a Port under a single well-known key.
//
// Names outside the configured allow-list are rejected with
// ErrInvalidMetric before any read or write. When the port is unavailable
// the store serves the default (or in-memory incremented) document without
// persisting it.
//
// Consistency: on a plain get/put port, Increment is a read-modify-write
// over the whole document with no compare-and-swap, so concurrent
// increments can lose updates. When the port implements Incrementer the
// store switches to one atomic counter per metric under "<key>:<name>",
// and the shared-document race disappears.
type Metrics struct {
	port     Port
	key      string
	allowed  []string
	observer Observer
}

// NewMetrics creates a metric store with the default document key and
// allow-list.
func NewMetrics(port Port) *Metrics {
	return NewMetricsWith(port, defaultMetricsKey, defaultMetricNames)
}

// NewMetricsWith creates a metric store for a custom document key and
// allow-list.
func NewMetricsWith(port Port, key string, allowed []string) *Metrics {
	if key == "" {
		key = defaultMetricsKey
	}
	if len(allowed) == 0 {
		allowed = defaultMetricNames
	}
	names := make([]string, len(allowed))
	copy(names, allowed)
	sort.Strings(names)
	return &Metrics{
		port:    port,
		key:     key,
		allowed: names,
	}
}

// WithObserver attaches an observer to receive operation events.
func (m *Metrics) WithObserver(o Observer) *Metrics {
	m.observer = o
	return m
}

// Allowed reports whether name is in the configured allow-list.
func (m *Metrics) Allowed(name string) bool {
	i := sort.SearchStrings(m.allowed, name)
	return i < len(m.allowed) && m.allowed[i] == name
}

// Get returns the stored document. An absent document is seeded with zeros
// for every allow-listed name and persisted before returning, so a read can
// trigger a write on first access; subsequent reads find the seed and write
// nothing. An unavailable port yields the default document without
// persistence.
func (m *Metrics) Get(ctx context.Context) (Document, error) {
	start := time.Now()
	if inc, ok := m.port.(Incrementer); ok {
		doc, err := m.getCounters(ctx, inc)
		m.observe(ctx, "metrics_get", m.key, err == nil, err, start)
		return doc, nil
	}
	doc, _, err := m.getDocument(ctx)
	m.observe(ctx, "metrics_get", m.key, err == nil, err, start)
	return doc, nil
}

// Increment adds one to the named counter and returns the updated document.
// It fails with ErrInvalidMetric when name is outside the allow-list; the
// stored document is never touched in that case.
func (m *Metrics) Increment(ctx context.Context, name string) (Document, error) {
	start := time.Now()
	if !m.Allowed(name) {
		err := fmt.Errorf("%w: %q", ErrInvalidMetric, name)
		m.observe(ctx, "metrics_increment", name, false, err, start)
		return nil, err
	}

	if inc, ok := m.port.(Incrementer); ok {
		if _, err := inc.Increment(ctx, m.counterKey(name), 1); err != nil {
			// Degrade to defaults plus this increment.
			doc := m.defaults()
			doc[name]++
			m.observe(ctx, "metrics_increment", name, false, err, start)
			return doc, nil
		}
		doc, err := m.getCounters(ctx, inc)
		m.observe(ctx, "metrics_increment", name, err == nil, err, start)
		return doc, nil
	}

	doc, available, err := m.getDocument(ctx)
	doc[name]++
	if available {
		if putErr := m.putDocument(ctx, doc); putErr != nil {
			err = putErr
		}
	}
	m.observe(ctx, "metrics_increment", name, err == nil, err, start)
	return doc, nil
}

// getDocument reads and repairs the shared document. It reports whether the
// port accepted the read (available=false means degraded defaults). Absent
// or malformed documents are reseeded and persisted best-effort.
func (m *Metrics) getDocument(ctx context.Context) (Document, bool, error) {
	body, ok, err := m.port.Get(ctx, m.key)
	if err != nil {
		return m.defaults(), false, err
	}
	if !ok {
		doc := m.defaults()
		if err := m.putDocument(ctx, doc); err != nil {
			return doc, false, err
		}
		return doc, true, nil
	}

	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		doc = m.defaults()
		if putErr := m.putDocument(ctx, doc); putErr != nil {
			return doc, false, putErr
		}
		return doc, true, nil
	}
	// Allow-listed names always have an entry, even if the stored document
	// predates them.
	for _, name := range m.allowed {
		if _, ok := doc[name]; !ok {
			doc[name] = 0
		}
	}
	return doc, true, nil
}

func (m *Metrics) putDocument(ctx context.Context, doc Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return m.port.Put(ctx, m.key, body)
}

// getCounters assembles the document from per-metric counter keys, seeding
// absent counters with zero.
func (m *Metrics) getCounters(ctx context.Context, inc Incrementer) (Document, error) {
	doc := make(Document, len(m.allowed))
	var firstErr error
	for _, name := range m.allowed {
		body, ok, err := m.port.Get(ctx, m.counterKey(name))
		if err != nil {
			doc[name] = 0
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !ok {
			doc[name] = 0
			if _, err := inc.Increment(ctx, m.counterKey(name), 0); err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}
		n, err := strconv.ParseInt(string(body), 10, 64)
		if err != nil {
			// Corrupt counter payload; treat as zero.
			doc[name] = 0
			continue
		}
		doc[name] = n
	}
	return doc, firstErr
}

func (m *Metrics) counterKey(name string) string {
	return m.key + ":" + name
}

func (m *Metrics) defaults() Document {
	doc := make(Document, len(m.allowed))
	for _, name := range m.allowed {
		doc[name] = 0
	}
	return doc
}

func (m *Metrics) observe(ctx context.Context, op, key string, hit bool, err error, start time.Time) {
	if m.observer == nil {
		return
	}
	m.observer.OnOp(ctx, op, key, hit, err, time.Since(start), m.port.Driver())
}
