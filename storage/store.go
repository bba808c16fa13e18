// Package storage is the durable key/value mirror behind the entity cache.
// Calls are synchronous: the cache hydrates from it before any network
// result arrives.
package storage

import (
	"strings"

	"github.com/jrsteele09/fpl-companion/internal/errors"
)

// Store is a synchronous key/value store. Get reports ok=false, with a nil
// error, when the key is absent.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
	Remove(key string) error
}

// ValidateKey trims key and rejects empty keys.
func ValidateKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.ErrStorageKeyless
	}
	return key, nil
}

type prefixed struct {
	prefix string
	next   Store
}

// WithPrefix namespaces every key of next with prefix, so several users or
// profiles can share one backing file.
func WithPrefix(next Store, prefix string) Store {
	if prefix == "" {
		return next
	}
	return prefixed{prefix: prefix, next: next}
}

func (p prefixed) key(key string) string {
	return p.prefix + ":" + key
}

func (p prefixed) Get(key string) ([]byte, bool, error) {
	return p.next.Get(p.key(key))
}

func (p prefixed) Set(key string, value []byte) error {
	return p.next.Set(p.key(key), value)
}

func (p prefixed) Remove(key string) error {
	return p.next.Remove(p.key(key))
}
