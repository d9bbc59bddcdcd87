// Package security tracks failed logins so repeated guessing locks an account
// for a sliding window.
package security

import (
	"context"
	"strings"
	"time"
)

// AttemptTracker counts failures per key inside a sliding window. Locked
// reports true once the count reaches the threshold.
type AttemptTracker interface {
	Locked(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) (int, error)
	Reset(ctx context.Context, key string) error
}

// Policy is the lockout threshold and window.
type Policy struct {
	Threshold int
	Window    time.Duration
}

// LoginKey normalizes an email into a tracker key.
func LoginKey(email string) string {
	return "login:" + strings.ToLower(strings.TrimSpace(email))
}
