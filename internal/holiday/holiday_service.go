package holiday

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

//go:generate mockgen -source=holiday_service.go -destination=mock/holiday_service_mock.go -package=mock
type Service interface {
	CalculateWorkingDays(ctx context.Context, startDate, endDate time.Time, startDayType, endDayType DayType, companyID *uuid.UUID) (decimal.Decimal, error)
	IsHoliday(ctx context.Context, date time.Time, companyID *uuid.UUID) (bool, error)
	NextWorkingDay(ctx context.Context, date time.Time, companyID *uuid.UUID) (time.Time, error)
	PreviousWorkingDay(ctx context.Context, date time.Time, companyID *uuid.UUID) (time.Time, error)
	CountHolidays(ctx context.Context, startDate, endDate time.Time, companyID *uuid.UUID) (int, error)
}

type service struct {
	repo       Repository
	calculator *Calculator
	logger     *zap.Logger
}

func NewService(repo Repository, calculator *Calculator, logger ...*zap.Logger) Service {
	l := zap.L().Named("holiday.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("holiday.service")
	}
	return &service{repo: repo, calculator: calculator, logger: l}
}

func (s *service) CalculateWorkingDays(
	ctx context.Context,
	startDate, endDate time.Time,
	startDayType, endDayType DayType,
	companyID *uuid.UUID,
) (decimal.Decimal, error) {
	holidays, err := s.holidaySet(ctx, startDate, endDate, companyID)
	if err != nil {
		s.logger.Error("load holidays failed", zap.Error(err))
		return decimal.Zero, err
	}

	return s.calculator.WorkingDays(startDate, endDate, startDayType, endDayType, holidays)
}

func (s *service) IsHoliday(ctx context.Context, date time.Time, companyID *uuid.UUID) (bool, error) {
	holidays, err := s.repo.FindBetweenDates(ctx, date, date, companyID)
	if err != nil {
		return false, err
	}
	return len(holidays) > 0, nil
}

// NextWorkingDay scans forward from date, skipping weekends and
// holidays. Holidays are prefetched in a window to avoid a query per
// day; if the scan walks past the window it fetches the next one, so an
// unusually long holiday run cannot make the scan miss holidays.
func (s *service) NextWorkingDay(ctx context.Context, date time.Time, companyID *uuid.UUID) (time.Time, error) {
	windowEnd := date.AddDate(0, 0, scanWindowDays)
	holidays, err := s.holidaySet(ctx, date, windowEnd, companyID)
	if err != nil {
		return time.Time{}, err
	}

	next := date.AddDate(0, 0, 1)
	for {
		if next.After(windowEnd) {
			windowEnd = next.AddDate(0, 0, scanWindowDays)
			holidays, err = s.holidaySet(ctx, next, windowEnd, companyID)
			if err != nil {
				return time.Time{}, err
			}
		}
		if !s.calculator.IsWeekend(next) && !holidays.Contains(next) {
			return next, nil
		}
		next = next.AddDate(0, 0, 1)
	}
}

func (s *service) PreviousWorkingDay(ctx context.Context, date time.Time, companyID *uuid.UUID) (time.Time, error) {
	windowStart := date.AddDate(0, 0, -scanWindowDays)
	holidays, err := s.holidaySet(ctx, windowStart, date, companyID)
	if err != nil {
		return time.Time{}, err
	}

	previous := date.AddDate(0, 0, -1)
	for {
		if previous.Before(windowStart) {
			windowStart = previous.AddDate(0, 0, -scanWindowDays)
			holidays, err = s.holidaySet(ctx, windowStart, previous, companyID)
			if err != nil {
				return time.Time{}, err
			}
		}
		if !s.calculator.IsWeekend(previous) && !holidays.Contains(previous) {
			return previous, nil
		}
		previous = previous.AddDate(0, 0, -1)
	}
}

// CountHolidays counts holidays in the range that do not fall on weekends.
func (s *service) CountHolidays(ctx context.Context, startDate, endDate time.Time, companyID *uuid.UUID) (int, error) {
	holidays, err := s.repo.FindBetweenDates(ctx, startDate, endDate, companyID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, h := range holidays {
		if !s.calculator.IsWeekend(h.Date) {
			count++
		}
	}
	return count, nil
}

// scanWindowDays sizes the holiday prefetch for working-day scans; two
// months covers any realistic holiday run in a single query.
const scanWindowDays = 62

func (s *service) holidaySet(ctx context.Context, startDate, endDate time.Time, companyID *uuid.UUID) (DateSet, error) {
	holidays, err := s.repo.FindBetweenDates(ctx, startDate, endDate, companyID)
	if err != nil {
		return nil, err
	}

	set := make(DateSet, len(holidays))
	for _, h := range holidays {
		set[h.Date.Format(dateLayout)] = struct{}{}
	}
	return set, nil
}
