// Package session hosts booking flows across requests: flow state is kept
// in a Store between inputs and every input runs under a per-session lock.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/wolfman30/physio-booking/internal/booking"
)

var (
	// ErrNotFound is returned for unknown or expired sessions.
	ErrNotFound = errors.New("session: not found")
	// ErrBusy is returned when another input for the session is still running.
	ErrBusy = errors.New("session: busy")
)

const (
	DefaultTTL     = 30 * time.Minute
	defaultLockTTL = 30 * time.Second
	// lockMargin covers the work around a commit: loading, rendering, saving.
	lockMargin = 10 * time.Second
)

// lockTTLFor keeps the session lock alive for at least a full commit.
func lockTTLFor(commitTimeout time.Duration) time.Duration {
	return max(defaultLockTTL, commitTimeout+lockMargin)
}

// Store persists flow state by session id.
type Store interface {
	Load(ctx context.Context, id string) (booking.State, error)
	Save(ctx context.Context, id string, state booking.State, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	// Lock takes the session's lock without waiting; it fails with ErrBusy
	// when the lock is held.
	Lock(ctx context.Context, id string, ttl time.Duration) (unlock func(), err error)
}
