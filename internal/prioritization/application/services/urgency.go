package services

import (
	"time"

	"github.com/felixgeelhaar/momentum/internal/prioritization/domain"
)

// Work day boundaries used for remaining-capacity calculations.
const (
	workDayStartHour = 6
	workDayEndHour   = 22
)

// UrgencySignals is the time-pressure output for one task.
type UrgencySignals struct {
	// Tier is the raw deadline/start-time tier score in [0,100].
	Tier float64

	// TimeOfDayBonus is the fit bonus/penalty keyed on the task's own
	// start hour.
	TimeOfDayBonus float64

	// CapacityPressure is the additive boost reflecting how little of the
	// work day remains.
	CapacityPressure float64

	// Urgency is min(100, Tier + TimeOfDayBonus + CapacityPressure).
	Urgency float64
}

// UrgencyCalculator converts deadlines and start times into urgency tiers.
type UrgencyCalculator struct {
	clock Clock
}

// NewUrgencyCalculator creates a calculator with the given clock.
func NewUrgencyCalculator(clock Clock) *UrgencyCalculator {
	if clock == nil {
		clock = NewSystemClock(nil)
	}
	return &UrgencyCalculator{clock: clock}
}

// Calculate computes all time-pressure signals for a task at the clock's
// current instant.
func (c *UrgencyCalculator) Calculate(t domain.TaskSnapshot) UrgencySignals {
	return c.CalculateAt(t, c.clock.Now())
}

// CalculateAt computes time-pressure signals at an explicit instant.
func (c *UrgencyCalculator) CalculateAt(t domain.TaskSnapshot, now time.Time) UrgencySignals {
	s := UrgencySignals{
		Tier:             c.tierScore(t, now),
		TimeOfDayBonus:   c.timeOfDayBonus(t, now),
		CapacityPressure: c.capacityPressure(now),
	}
	urgency := s.Tier + s.TimeOfDayBonus + s.CapacityPressure
	if urgency > 100 {
		urgency = 100
	}
	if urgency < 0 {
		urgency = 0
	}
	s.Urgency = urgency
	return s
}

// tierScore picks the deadline tier when a due date exists, otherwise the
// start-time tier, otherwise the flat unscheduled baseline.
func (c *UrgencyCalculator) tierScore(t domain.TaskSnapshot, now time.Time) float64 {
	if t.DueAt != nil {
		return c.deadlineTier(*t.DueAt, now)
	}
	if t.StartAt != nil {
		return c.startTier(*t.StartAt, now)
	}
	return 20
}

// deadlineTier evaluates the due-date tier table in order; the first match
// wins.
func (c *UrgencyCalculator) deadlineTier(due, now time.Time) float64 {
	minutes := due.Sub(now).Minutes()

	switch {
	case minutes < 0:
		return 100
	case minutes <= 10:
		return 98
	case minutes <= 30:
		return 96
	case minutes <= 60:
		return 94
	case minutes <= 120:
		return 92
	case minutes <= 240:
		return 90
	}

	if sameDay(due, now) {
		remaining := c.RemainingWorkHours(now)
		switch {
		case remaining <= 4:
			return 86
		case remaining <= 8:
			return 84
		default:
			return 82
		}
	}

	days := daysBetween(now, due)
	switch {
	case days == 1:
		return 85
	case days <= 3:
		return 70
	case days <= 7:
		return 50
	case days <= 14:
		return 30
	default:
		return 10
	}
}

// startTier evaluates the start-time tier table for tasks without deadlines.
func (c *UrgencyCalculator) startTier(start, now time.Time) float64 {
	minutes := start.Sub(now).Minutes()

	switch {
	case minutes <= 0: // should already have started
		return 100
	case minutes <= 10:
		return 97
	case minutes <= 30:
		return 95
	case minutes <= 60:
		return 93
	case minutes <= 120:
		return 91
	case minutes <= 240:
		return 89
	}

	startHour := start.Hour()
	nowHour := now.Hour()
	if startHour >= 6 && startHour <= 10 && nowHour <= 12 {
		return 87 // morning task while it is still morning
	}
	if startHour >= 18 && nowHour >= 15 {
		return 85 // evening task approaching its window
	}
	return 75
}

// RemainingWorkHours returns how much of the 06:00-22:00 work day remains.
func (c *UrgencyCalculator) RemainingWorkHours(now time.Time) float64 {
	hourFraction := float64(now.Hour()) + float64(now.Minute())/60
	remaining := float64(workDayEndHour) - hourFraction
	if remaining < 0 {
		return 0
	}
	return remaining
}

// capacityPressure boosts urgency as the work day runs out.
func (c *UrgencyCalculator) capacityPressure(now time.Time) float64 {
	remaining := c.RemainingWorkHours(now)
	switch {
	case remaining <= 2:
		return 25
	case remaining <= 4:
		return 15
	case remaining <= 6:
		return 8
	default:
		return 0
	}
}

// timeOfDayBonus rewards evaluating a task inside its natural window. The
// table is keyed by the task's own start hour, not its deadline.
func (c *UrgencyCalculator) timeOfDayBonus(t domain.TaskSnapshot, now time.Time) float64 {
	if t.StartAt == nil {
		return 0
	}

	startHour := t.StartAt.Hour()
	nowHour := now.Hour()

	switch {
	case startHour >= 6 && startHour <= 10: // morning window
		switch {
		case nowHour <= 10:
			return 20
		case nowHour <= 12:
			return 10
		default:
			return -5
		}
	case startHour >= 11 && startHour <= 14: // midday window
		if nowHour >= 11 && nowHour <= 15 {
			return 15
		}
		return 5
	case startHour >= 15 && startHour <= 18: // afternoon window
		if nowHour >= 13 && nowHour <= 18 {
			return 12
		}
		return 3
	case startHour >= 19 && startHour <= 22: // evening window
		if nowHour >= 17 {
			return 8
		}
		return 0
	default:
		return 0
	}
}

// sameDay reports whether two instants fall on the same calendar date in
// now's location.
func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// daysBetween counts calendar-day boundaries between now and a future
// instant in now's location.
func daysBetween(now, future time.Time) int {
	future = future.In(now.Location())
	nowDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	futureDate := time.Date(future.Year(), future.Month(), future.Day(), 0, 0, 0, 0, now.Location())
	return int(futureDate.Sub(nowDate).Hours() / 24)
}
