// Package services implements the scoring components of the prioritization
// engine.
package services

import "time"

// Clock supplies "now" so scoring is deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock returns wall-clock time in the given location.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock creates a clock. A nil location means time.Local.
func NewSystemClock(loc *time.Location) *SystemClock {
	if loc == nil {
		loc = time.Local
	}
	return &SystemClock{loc: loc}
}

func (c *SystemClock) Now() time.Time {
	return time.Now().In(c.loc)
}

// FixedClock always returns the same instant. Used in tests.
type FixedClock struct {
	Time time.Time
}

func (c FixedClock) Now() time.Time { return c.Time }
