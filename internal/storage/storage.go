// Package storage provides the key-value providers hoverpad persists state
// in, and the remote pad store used for sync.
package storage

import (
	"context"
	"errors"
	"strconv"
)

// Well-known keys.
const (
	KeyPad                 = "hoverpad"
	KeyPadVersion          = "hoverpadVersion"
	KeyPadID               = "hoverpadId"
	KeyPadModifiedAt       = "hoverpadModifiedAt"
	KeyLastModified        = "lastModified"
	KeyLockAfterSeconds    = "lockAfterSeconds"
	KeyTemporaryPassphrase = "temporaryPassphrase"
	KeyBearer              = "bearer"
	KeyKeys                = "keys"
)

var (
	// ErrStorageFailure wraps provider I/O errors. The core surfaces it and
	// never retries.
	ErrStorageFailure = errors.New("storage failure")

	// ErrPadNotFound is returned by the remote store when no pad exists yet.
	ErrPadNotFound = errors.New("pad not found")

	// ErrVersionConflict is returned when a conditional remote write loses.
	ErrVersionConflict = errors.New("version conflict")
)

// Provider is a key-value store over string keys.
type Provider interface {
	// Get returns the values of the requested keys. Missing keys are
	// omitted from the result.
	Get(ctx context.Context, keys ...string) (map[string]string, error)

	// Set writes every item. A nil value deletes the key.
	Set(ctx context.Context, items map[string]*string) error
}

// Value returns a pointer to s, for use in Set.
func Value(s string) *string {
	return &s
}

// ParseInt parses an optional integer value. Empty or invalid input
// yields ok == false.
func ParseInt(s string) (n int64, ok bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatInt is the inverse of ParseInt.
func FormatInt(n int64) *string {
	return Value(strconv.FormatInt(n, 10))
}

// apply mutates values according to Set semantics.
func apply(values map[string]string, items map[string]*string) {
	for k, v := range items {
		if v == nil {
			delete(values, k)
			continue
		}
		values[k] = *v
	}
}

// pick copies the requested keys out of values.
func pick(values map[string]string, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := values[k]; ok {
			out[k] = v
		}
	}
	return out
}
