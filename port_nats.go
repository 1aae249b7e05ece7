package kvstash

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"

	"github.com/nats-io/nats.go"
)

// NATSKeyValue captures the subset of nats.KeyValue used by the port.
type NATSKeyValue interface {
	Get(key string) (nats.KeyValueEntry, error)
	Put(key string, value []byte) (uint64, error)
	Create(key string, value []byte) (uint64, error)
	Update(key string, value []byte, last uint64) (uint64, error)
	Status() (nats.KeyValueStatus, error)
}

type natsPort struct {
	kv     NATSKeyValue
	prefix string
}

func newNATSPort(kv NATSKeyValue, prefix string) Port {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &natsPort{kv: kv, prefix: prefix}
}

func (p *natsPort) Driver() Driver { return DriverNATS }

func (p *natsPort) Ready(context.Context) error {
	if _, err := p.kv.Status(); err != nil {
		return ErrPortUnavailable
	}
	return nil
}

func (p *natsPort) Get(_ context.Context, key string) ([]byte, bool, error) {
	entry, err := p.kv.Get(p.portKey(key))
	if isNATSMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if entry.Operation() == nats.KeyValueDelete || entry.Operation() == nats.KeyValuePurge {
		return nil, false, nil
	}
	return cloneBytes(entry.Value()), true, nil
}

func (p *natsPort) Put(_ context.Context, key string, value []byte) error {
	_, err := p.kv.Put(p.portKey(key), cloneBytes(value))
	return err
}

// Increment performs an optimistic compare-and-swap loop over the entry
// revision so concurrent increments never lose updates.
func (p *natsPort) Increment(_ context.Context, key string, delta int64) (int64, error) {
	portKey := p.portKey(key)
	for attempt := 0; attempt < 16; attempt++ {
		var (
			current  int64
			revision uint64
		)

		entry, err := p.kv.Get(portKey)
		if err != nil {
			if !isNATSMiss(err) {
				return 0, err
			}
		} else if entry.Operation() != nats.KeyValueDelete && entry.Operation() != nats.KeyValuePurge {
			revision = entry.Revision()
			if raw := entry.Value(); len(raw) > 0 {
				parsed, parseErr := strconv.ParseInt(string(raw), 10, 64)
				if parseErr != nil {
					return 0, fmt.Errorf("kvstash: key %q does not contain a numeric value", key)
				}
				current = parsed
			}
		}

		next := current + delta
		body := []byte(strconv.FormatInt(next, 10))
		if revision == 0 {
			_, err = p.kv.Create(portKey, body)
			if err == nil {
				return next, nil
			}
			if errors.Is(err, nats.ErrKeyExists) {
				continue
			}
			return 0, err
		}
		_, err = p.kv.Update(portKey, body, revision)
		if err == nil {
			return next, nil
		}
		if errors.Is(err, nats.ErrKeyExists) || isNATSMiss(err) {
			continue
		}
		return 0, err
	}
	return 0, errors.New("kvstash: nats increment exceeded retry limit")
}

func (p *natsPort) portKey(key string) string {
	return "p." + encodeNATSKeyPart(p.prefix) + ".k." + encodeNATSKeyPart(key)
}

func isNATSMiss(err error) bool {
	return errors.Is(err, nats.ErrKeyNotFound) || errors.Is(err, nats.ErrKeyDeleted)
}

// encodeNATSKeyPart makes arbitrary keys safe for the restricted NATS key
// alphabet.
func encodeNATSKeyPart(part string) string {
	if part == "" {
		return "_"
	}
	return base64.RawURLEncoding.EncodeToString([]byte(part))
}
