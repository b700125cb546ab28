package holiday

import (
	"time"

	"github.com/shopspring/decimal"

	holidayerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/holiday/errors"
)

// DayType describes how much of a boundary day a leave covers.
type DayType string

const (
	FullDay    DayType = "FULL_DAY"
	FirstHalf  DayType = "FIRST_HALF"
	SecondHalf DayType = "SECOND_HALF"
)

const dateLayout = "2006-01-02"

// ParseDayType validates a wire-format day type. An empty value means
// a full day.
func ParseDayType(raw string) (DayType, error) {
	switch DayType(raw) {
	case "":
		return FullDay, nil
	case FullDay, FirstHalf, SecondHalf:
		return DayType(raw), nil
	default:
		return "", holidayerrors.ErrInvalidDayType
	}
}

// DateSet is a set of calendar dates, keyed by YYYY-MM-DD.
type DateSet map[string]struct{}

func NewDateSet(dates ...time.Time) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s[d.Format(dateLayout)] = struct{}{}
	}
	return s
}

func (s DateSet) Contains(date time.Time) bool {
	_, ok := s[date.Format(dateLayout)]
	return ok
}

var (
	one  = decimal.NewFromInt(1)
	half = decimal.NewFromFloat(0.5)
)

// Calculator computes working-day spans. It holds only the weekend
// policy and is safe for concurrent use; holiday data is passed in so
// the computation stays deterministic.
type Calculator struct {
	weekend map[time.Weekday]bool
}

// NewCalculator builds a calculator with the given weekend days. With no
// arguments it defaults to Saturday and Sunday.
func NewCalculator(weekendDays ...time.Weekday) *Calculator {
	if len(weekendDays) == 0 {
		weekendDays = []time.Weekday{time.Saturday, time.Sunday}
	}
	weekend := make(map[time.Weekday]bool, len(weekendDays))
	for _, d := range weekendDays {
		weekend[d] = true
	}
	return &Calculator{weekend: weekend}
}

func (c *Calculator) IsWeekend(date time.Time) bool {
	return c.weekend[date.Weekday()]
}

// WorkingDays counts leave days in [startDate, endDate], skipping
// weekends and holidays entirely. Boundary days contribute 1.0 for
// FULL_DAY and 0.5 for either half; middle days always contribute 1.0.
// A single-day leave covering both halves counts as one full day.
func (c *Calculator) WorkingDays(
	startDate, endDate time.Time,
	startDayType, endDayType DayType,
	holidays DateSet,
) (decimal.Decimal, error) {
	if endDate.Before(startDate) {
		return decimal.Zero, holidayerrors.ErrInvalidRange
	}

	if sameDay(startDate, endDate) {
		if c.IsWeekend(startDate) || holidays.Contains(startDate) {
			return decimal.Zero, nil
		}
		switch {
		case startDayType == FullDay:
			return one, nil
		case startDayType == FirstHalf && endDayType == SecondHalf:
			// Both halves of the same day add up to a full day.
			return one, nil
		default:
			return half, nil
		}
	}

	workingDays := decimal.Zero
	for current := startDate; !current.After(endDate); current = current.AddDate(0, 0, 1) {
		if c.IsWeekend(current) || holidays.Contains(current) {
			continue
		}
		switch {
		case sameDay(current, startDate):
			workingDays = workingDays.Add(boundaryContribution(startDayType))
		case sameDay(current, endDate):
			workingDays = workingDays.Add(boundaryContribution(endDayType))
		default:
			workingDays = workingDays.Add(one)
		}
	}

	return workingDays, nil
}

// CountWeekends counts weekend days in [startDate, endDate].
func (c *Calculator) CountWeekends(startDate, endDate time.Time) int {
	count := 0
	for current := startDate; !current.After(endDate); current = current.AddDate(0, 0, 1) {
		if c.IsWeekend(current) {
			count++
		}
	}
	return count
}

func boundaryContribution(dayType DayType) decimal.Decimal {
	if dayType == FullDay {
		return one
	}
	return half
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
