// Package kv defines the persistent key-value port the expense store writes
// through, plus typed JSON helpers on top of it.
//
// Reads fall back to a caller-supplied default when a key is absent or its
// value cannot be decoded; writes report failures but callers are expected to
// log and continue, keeping the in-memory state as the source of truth.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	applog "expensetracker/internal/log"
)

// Keys used by the application.
const (
	KeyExpenses    = "expenseTracker.expenses"
	KeyShowWelcome = "expenseTracker.showWelcome"
)

var (
	// ErrNotFound is returned by Store.Get when the key has never been set.
	ErrNotFound = errors.New("kv: key not found")
	// ErrRead wraps failures reading or decoding a stored value.
	ErrRead = errors.New("kv: read failed")
	// ErrWrite wraps failures encoding or storing a value.
	ErrWrite = errors.New("kv: write failed")
)

// Store is a byte-oriented key-value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Load decodes the JSON value under key into a T. When the key is absent the
// default is returned silently; when it is unreadable the failure is logged
// and the default is returned.
func Load[T any](ctx context.Context, s Store, key string, def T) T {
	v, err := TryLoad(ctx, s, key, def)
	if err != nil {
		slog.ErrorContext(ctx, "Error reading stored value, using default",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldOperation, applog.OpRead,
			applog.FieldKey, key,
			applog.FieldError, err)
	}
	return v
}

// TryLoad is Load without logging. It returns def together with a non-nil
// error wrapping ErrRead when the stored value is unusable.
func TryLoad[T any](ctx context.Context, s Store, key string, def T) (T, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, fmt.Errorf("%w: get %q: %v", ErrRead, key, err)
	}
	if len(raw) == 0 {
		return def, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return def, fmt.Errorf("%w: decode %q: %v", ErrRead, key, err)
	}
	return v, nil
}

// Save encodes v as JSON and stores it under key.
func Save[T any](ctx context.Context, s Store, key string, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encode %q: %v", ErrWrite, key, err)
	}
	if err := s.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("%w: set %q: %v", ErrWrite, key, err)
	}
	return nil
}
