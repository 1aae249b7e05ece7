// Package kvstash layers application primitives on top of a hosted
// key-value binding: a TTL-based read-through cache, an allow-listed
// metric counter store, and an in-memory sliding-window rate limiter.
//
// The binding is modeled as a Port (get/put by string key) and injected
// into each component at construction. Ports exist for in-process memory,
// Redis, NATS JetStream KV, SQL databases, and DynamoDB; a missing or
// misconfigured binding is represented by a port whose calls report
// ErrPortUnavailable, so "binding not configured" is never conflated with
// "key absent". Components degrade rather than fail when the port is down:
// the cache computes directly and the metric store serves defaults.
package kvstash
