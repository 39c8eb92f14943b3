package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBoostEligible(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		used  int
		month string
		limit int
		want  bool
	}{
		{"exactly 80 percent qualifies", 40, "2025-06", 50, true},
		{"just under the threshold", 39, "2025-06", 50, false},
		{"full quota", 50, "2025-06", 50, true},
		{"counter left over from a past month", 45, "2025-04", 50, false},
		{"zero limit never qualifies", 40, "2025-06", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			u := &User{
				ItinerariesCreatedThisMonth: tc.used,
				LastItineraryMonth:          tc.month,
				MonthlyItineraryLimit:       tc.limit,
			}
			assert.Equal(t, tc.want, u.BoostEligible(now))
		})
	}
}

func TestCurrentMonthUsageIgnoresPastMonths(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	u := &User{ItinerariesCreatedThisMonth: 45, LastItineraryMonth: "2025-05"}

	assert.Equal(t, 0, u.CurrentMonthUsage(now))

	u.LastItineraryMonth = "2025-06"
	assert.Equal(t, 45, u.CurrentMonthUsage(now))
}
