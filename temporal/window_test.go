package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)

func TestWindowExpired(t *testing.T) {
	w := Window{Start: base, Length: 24 * time.Hour}

	assert.False(t, w.Expired(base), "window is valid at its start")
	assert.False(t, w.Expired(base.Add(24*time.Hour)), "window is valid exactly at its end")
	assert.True(t, w.Expired(base.Add(24*time.Hour+time.Millisecond)), "window expires strictly after its end")
}

func TestWindowRemaining(t *testing.T) {
	w := Window{Start: base, Length: 12 * time.Hour}

	assert.Equal(t, 12*time.Hour, w.Remaining(base))
	assert.Equal(t, 2*time.Hour, w.Remaining(base.Add(10*time.Hour)))
	assert.Negative(t, int64(w.Remaining(base.Add(13*time.Hour))))
}

func TestShouldFire(t *testing.T) {
	threshold := base

	tests := []struct {
		name         string
		lastActionAt *time.Time
		now          time.Time
		want         bool
	}{
		{"before threshold, never fired", nil, base.Add(-time.Minute), false},
		{"at threshold, never fired", nil, base, true},
		{"past threshold, never fired", nil, base.Add(time.Hour), true},
		{"already fired after threshold", timePtr(base.Add(time.Minute)), base.Add(time.Hour), false},
		{"fired exactly at threshold", timePtr(base), base.Add(time.Hour), false},
		{"fired in a previous window", timePtr(base.Add(-48 * time.Hour)), base.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShouldFire(threshold, tt.lastActionAt, tt.now))
		})
	}
}

func TestStaleBoundary(t *testing.T) {
	ttl := 30 * 24 * time.Hour
	createdAt := base.Add(-ttl)

	assert.False(t, Stale(createdAt, ttl, base), "a value aged exactly the TTL is still fresh")
	assert.True(t, Stale(createdAt.Add(-time.Millisecond), ttl, base), "one millisecond older is stale")
	assert.False(t, Stale(base.Add(-time.Hour), ttl, base))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "2025-03-10", DayKey(base))
	assert.Equal(t, "2025-03", MonthKey(base))

	// Keys are stamped in UTC regardless of the input location.
	madrid := time.FixedZone("CET", 3600)
	assert.Equal(t, DayKey(base), DayKey(base.In(madrid)))
}

func timePtr(t time.Time) *time.Time { return &t }
