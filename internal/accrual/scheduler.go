package accrual

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance"
	balanceerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance/errors"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavetype"
)

// retentionYears is how long old balance records are kept before the
// cleanup job deletes them.
const retentionYears = 3

var twelve = decimal.NewFromInt(12)

// Scheduler runs the periodic balance jobs: monthly accrual, yearly
// allocation with carry-forward, carry-forward expiry and retention
// cleanup. Each employee/leave-type iteration is fault-isolated; one
// failure is logged and the batch continues.
type Scheduler struct {
	employees  ActiveEmployeeProvider
	leaveTypes leavetype.Repository
	balances   leavebalance.Service
	ledger     leavebalance.Repository
	logger     *zap.Logger
}

func NewScheduler(
	employees ActiveEmployeeProvider,
	leaveTypes leavetype.Repository,
	balances leavebalance.Service,
	ledger leavebalance.Repository,
	logger ...*zap.Logger,
) *Scheduler {
	l := zap.L().Named("accrual.scheduler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("accrual.scheduler")
	}
	return &Scheduler{
		employees:  employees,
		leaveTypes: leaveTypes,
		balances:   balances,
		ledger:     ledger,
		logger:     l,
	}
}

// Run drives the jobs off a daily tick: monthly accrual and expiry on
// the first of every month, yearly allocation on January 1st, cleanup
// weekly on Sundays.
func (s *Scheduler) Run(ctx context.Context, tickInterval time.Duration) {
	if tickInterval <= 0 {
		tickInterval = 24 * time.Hour
	}

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	s.logger.Info("accrual scheduler started", zap.Duration("tick_interval", tickInterval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("accrual scheduler stopped")
			return
		case <-ticker.C:
			now := time.Now().UTC()
			if now.Day() == 1 {
				if now.Month() == time.January {
					s.RunYearlyAccrual(ctx, now)
				}
				s.RunMonthlyAccrual(ctx, now)
				s.RunCarryForwardExpiry(ctx, now)
			}
			if now.Weekday() == time.Sunday {
				s.RunCleanup(ctx, now)
			}
		}
	}
}

// RunMonthlyAccrual tops up every active employee's balance for each
// monthly-accruing leave type by defaultDaysPerYear/12, rounded
// half-up to two decimals. Employees without a record yet get one
// allocated instead.
func (s *Scheduler) RunMonthlyAccrual(ctx context.Context, now time.Time) {
	year := now.Year()
	s.logger.Info("monthly accrual started", zap.Int("year", year), zap.String("month", now.Month().String()))

	types, err := s.leaveTypes.FindActiveByFrequency(ctx, leavetype.AccrualMonthly)
	if err != nil {
		s.logger.Error("monthly accrual load leave types failed", zap.Error(err))
		return
	}
	employeeIDs, err := s.employees.ActiveEmployeeIDs(ctx)
	if err != nil {
		s.logger.Error("monthly accrual load employees failed", zap.Error(err))
		return
	}

	var processed, failed int
	for _, lt := range types {
		monthly := lt.DefaultDaysPerYear.DivRound(twelve, 2)
		if !monthly.IsPositive() {
			continue
		}

		for _, employeeID := range employeeIDs {
			if err := s.accrueOne(ctx, employeeID, lt.ID, year, monthly); err != nil {
				failed++
				s.logger.Error("monthly accrual item failed",
					zap.String("employee_id", employeeID.String()),
					zap.String("leave_type_id", lt.ID.String()),
					zap.Error(err),
				)
				continue
			}
			processed++
		}
	}

	s.logger.Info("monthly accrual finished",
		zap.Int("processed", processed),
		zap.Int("failed", failed),
	)
}

// accrueOne adjusts an existing balance or allocates a fresh one when
// the employee has no record for the year yet.
func (s *Scheduler) accrueOne(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, amount decimal.Decimal) error {
	_, err := s.balances.Adjust(ctx, employeeID, leaveTypeID, year, amount)
	if errors.Is(err, balanceerrors.ErrBalanceNotFound) {
		_, err = s.balances.Allocate(ctx, employeeID, leaveTypeID, year, amount, decimal.Zero)
	}
	return err
}

// RunYearlyAccrual allocates the new year's balance for each
// yearly-accruing leave type, carrying forward up to the type's cap
// from the prior year's unused days.
func (s *Scheduler) RunYearlyAccrual(ctx context.Context, now time.Time) {
	year := now.Year()
	s.logger.Info("yearly accrual started", zap.Int("year", year))

	types, err := s.leaveTypes.FindActiveByFrequency(ctx, leavetype.AccrualYearly)
	if err != nil {
		s.logger.Error("yearly accrual load leave types failed", zap.Error(err))
		return
	}
	employeeIDs, err := s.employees.ActiveEmployeeIDs(ctx)
	if err != nil {
		s.logger.Error("yearly accrual load employees failed", zap.Error(err))
		return
	}

	var processed, failed int
	for _, lt := range types {
		for _, employeeID := range employeeIDs {
			carry, err := s.carryForward(ctx, employeeID, lt, year-1)
			if err != nil {
				failed++
				s.logger.Error("yearly accrual carry-forward lookup failed",
					zap.String("employee_id", employeeID.String()),
					zap.String("leave_type_id", lt.ID.String()),
					zap.Error(err),
				)
				continue
			}

			if _, err := s.balances.Allocate(ctx, employeeID, lt.ID, year, lt.DefaultDaysPerYear, carry); err != nil {
				if errors.Is(err, balanceerrors.ErrDuplicateAllocation) {
					continue
				}
				failed++
				s.logger.Error("yearly accrual allocation failed",
					zap.String("employee_id", employeeID.String()),
					zap.String("leave_type_id", lt.ID.String()),
					zap.Error(err),
				)
				continue
			}
			processed++
		}
	}

	s.logger.Info("yearly accrual finished",
		zap.Int("processed", processed),
		zap.Int("failed", failed),
	)
}

// carryForward computes min(prior year's available, maxCarryForwardDays)
// for types that allow it, zero otherwise.
func (s *Scheduler) carryForward(ctx context.Context, employeeID uuid.UUID, lt leavetype.LeaveType, priorYear int) (decimal.Decimal, error) {
	if !lt.AllowCarryForward {
		return decimal.Zero, nil
	}

	prior, err := s.ledger.FindByKey(ctx, employeeID, lt.ID, priorYear)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	carry := prior.Available
	if lt.MaxCarryForwardDays != nil {
		limit := decimal.NewFromInt(int64(*lt.MaxCarryForwardDays))
		if carry.GreaterThan(limit) {
			carry = limit
		}
	}
	if carry.IsNegative() {
		carry = decimal.Zero
	}
	return carry, nil
}

// RunCarryForwardExpiry zeroes the carriedForward marker on current-year
// balances once a leave type's expiry month has passed. totalAllocated
// and available are left untouched.
func (s *Scheduler) RunCarryForwardExpiry(ctx context.Context, now time.Time) {
	year := now.Year()
	s.logger.Info("carry-forward expiry started", zap.Int("year", year))

	types, err := s.leaveTypes.FindCarryForwardExpiring(ctx)
	if err != nil {
		s.logger.Error("carry-forward expiry load leave types failed", zap.Error(err))
		return
	}

	var expired, failed int
	for _, lt := range types {
		if lt.CarryForwardExpiryMonths == nil || int(now.Month()) <= *lt.CarryForwardExpiryMonths {
			continue
		}

		balances, err := s.ledger.FindByLeaveTypeAndYear(ctx, lt.ID, year)
		if err != nil {
			s.logger.Error("carry-forward expiry load balances failed",
				zap.String("leave_type_id", lt.ID.String()),
				zap.Error(err),
			)
			continue
		}

		for i := range balances {
			b := &balances[i]
			if !b.CarriedForward.IsPositive() {
				continue
			}
			b.CarriedForward = decimal.Zero
			if err := s.ledger.Update(ctx, b); err != nil {
				failed++
				s.logger.Error("carry-forward expiry item failed",
					zap.String("balance_id", b.ID.String()),
					zap.Error(err),
				)
				continue
			}
			expired++
		}
	}

	s.logger.Info("carry-forward expiry finished",
		zap.Int("expired", expired),
		zap.Int("failed", failed),
	)
}

// RunCleanup deletes balance records outside the retention window.
func (s *Scheduler) RunCleanup(ctx context.Context, now time.Time) {
	cutoff := now.Year() - retentionYears
	deleted, err := s.ledger.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error("balance cleanup failed", zap.Int("cutoff_year", cutoff), zap.Error(err))
		return
	}
	s.logger.Info("balance cleanup finished",
		zap.Int("cutoff_year", cutoff),
		zap.Int64("deleted", deleted),
	)
}
