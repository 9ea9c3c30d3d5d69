package domain

import (
	"fmt"
	"time"
)

const monthLayout = "2006-01"

// ParseMonth validates a YYYY-MM billing month.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return t, nil
}

// MonthOf formats a timestamp as its UTC billing month.
func MonthOf(t time.Time) string {
	return t.UTC().Format(monthLayout)
}
