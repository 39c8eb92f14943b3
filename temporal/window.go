// Package temporal holds the time-window decisions shared by the
// link-expiry notifier, the photo cache gate, and the usage-counter
// rollover. All functions are pure so each call site can be exercised
// against a fixed clock.
package temporal

import "time"

// Window is a span of validity beginning at Start and lasting Length.
type Window struct {
	Start  time.Time
	Length time.Duration
}

// End returns the instant the window closes.
func (w Window) End() time.Time {
	return w.Start.Add(w.Length)
}

// Remaining returns how much of the window is left at now.
// The result is negative once the window has closed.
func (w Window) Remaining(now time.Time) time.Duration {
	return w.End().Sub(now)
}

// Expired reports whether now is strictly past the end of the window.
// A value exactly at the end instant is still valid.
func (w Window) Expired(now time.Time) bool {
	return now.After(w.End())
}

// ShouldFire reports whether a window-gated side effect is due: now has
// reached the threshold and the effect has not already fired within the
// current window. lastActionAt is nil when the effect never fired.
func ShouldFire(threshold time.Time, lastActionAt *time.Time, now time.Time) bool {
	if now.Before(threshold) {
		return false
	}
	if lastActionAt == nil {
		return true
	}
	return lastActionAt.Before(threshold)
}

// Stale reports whether a cached value created at createdAt has outlived
// ttl. The comparison is strict: a value aged exactly ttl is still fresh.
func Stale(createdAt time.Time, ttl time.Duration, now time.Time) bool {
	return now.Sub(createdAt) > ttl
}

// DayKey returns the YYYY-MM-DD key for t in UTC, as persisted in the
// users table for daily counter rollover.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// MonthKey returns the YYYY-MM key for t in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
