package leavebalance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	balanceerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance/errors"
)

// Service is the leave balance ledger. Every mutation keeps the
// invariant available = totalAllocated - used - pending and never lets
// used, pending or available go negative.
//
//go:generate mockgen -source=balance_service.go -destination=mock/balance_service_mock.go -package=mock
type Service interface {
	// WithTx returns a service whose mutations run against the given
	// transaction and leave commit/rollback to the caller.
	WithTx(tx *sql.Tx) Service

	Allocate(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, totalAllocated, carriedForward decimal.Decimal) (BalanceResponse, error)
	Adjust(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, delta decimal.Decimal) (BalanceResponse, error)
	Reserve(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error
	Release(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error
	Confirm(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error
	Deduct(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error

	GetEmployeeBalances(ctx context.Context, employeeID uuid.UUID, year int) ([]BalanceResponse, error)
	GetBalance(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (BalanceResponse, error)
}

type service struct {
	db     *sql.DB
	repo   Repository
	tx     *sql.Tx
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(db *sql.DB, repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("leavebalance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leavebalance.service")
	}
	return &service{db: db, repo: repo, sf: &singleflight.Group{}, logger: l}
}

func (s *service) WithTx(tx *sql.Tx) Service {
	return &service{db: s.db, repo: s.repo, tx: tx, sf: s.sf, logger: s.logger}
}

// begin resolves the transaction scope for a mutation. When the service
// is tx-bound the caller owns commit/rollback and both returned
// functions are no-ops.
func (s *service) begin(ctx context.Context) (Repository, func() error, func(), error) {
	if s.tx != nil {
		return s.repo.WithTx(s.tx), func() error { return nil }, func() {}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return s.repo.WithTx(tx), tx.Commit, func() { _ = tx.Rollback() }, nil
}

func (s *service) Allocate(
	ctx context.Context,
	employeeID, leaveTypeID uuid.UUID,
	year int,
	totalAllocated, carriedForward decimal.Decimal,
) (BalanceResponse, error) {
	s.logger.Debug("allocate balance requested",
		zap.String("employee_id", employeeID.String()),
		zap.String("leave_type_id", leaveTypeID.String()),
		zap.Int("year", year),
	)

	repo, commit, rollback, err := s.begin(ctx)
	if err != nil {
		s.logger.Error("allocate balance begin tx failed", zap.Error(err))
		return BalanceResponse{}, err
	}
	defer rollback()

	if _, err := repo.FindByKey(ctx, employeeID, leaveTypeID, year); err == nil {
		return BalanceResponse{}, balanceerrors.ErrDuplicateAllocation
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return BalanceResponse{}, err
	}

	total := totalAllocated.Add(carriedForward)
	b := &LeaveBalance{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		LeaveTypeID:    leaveTypeID,
		Year:           year,
		TotalAllocated: total,
		Used:           decimal.Zero,
		Pending:        decimal.Zero,
		Available:      total,
		CarriedForward: carriedForward,
	}

	if err := repo.Create(ctx, b); err != nil {
		// The unique index backs up the existence check against races.
		if isUniqueViolation(err) {
			return BalanceResponse{}, balanceerrors.ErrDuplicateAllocation
		}
		s.logger.Error("allocate balance persist failed", zap.Error(err))
		return BalanceResponse{}, err
	}

	if err := commit(); err != nil {
		s.logger.Error("allocate balance commit failed", zap.Error(err))
		return BalanceResponse{}, err
	}
	s.logger.Info("leave balance allocated",
		zap.String("employee_id", employeeID.String()),
		zap.String("leave_type_id", leaveTypeID.String()),
		zap.Int("year", year),
		zap.String("total_allocated", total.StringFixed(2)),
	)

	return mapToResponse(*b), nil
}

func (s *service) Adjust(
	ctx context.Context,
	employeeID, leaveTypeID uuid.UUID,
	year int,
	delta decimal.Decimal,
) (BalanceResponse, error) {
	var resp BalanceResponse
	err := s.mutate(ctx, employeeID, leaveTypeID, year, "adjust", func(b *LeaveBalance) error {
		b.TotalAllocated = b.TotalAllocated.Add(delta)
		b.recalcAvailable()
		if b.Available.IsNegative() {
			return balanceerrors.ErrInsufficientBalance
		}
		resp = mapToResponse(*b)
		return nil
	})
	return resp, err
}

func (s *service) Reserve(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	if !days.IsPositive() {
		return balanceerrors.ErrInvalidDays
	}
	return s.mutate(ctx, employeeID, leaveTypeID, year, "reserve", func(b *LeaveBalance) error {
		if b.Available.LessThan(days) {
			s.logger.Warn("reserve rejected, insufficient balance",
				zap.String("employee_id", employeeID.String()),
				zap.String("available", b.Available.StringFixed(2)),
				zap.String("requested", days.StringFixed(2)),
			)
			return balanceerrors.ErrInsufficientBalance
		}
		b.Pending = b.Pending.Add(days)
		b.recalcAvailable()
		return nil
	})
}

func (s *service) Release(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	if !days.IsPositive() {
		return balanceerrors.ErrInvalidDays
	}
	return s.mutate(ctx, employeeID, leaveTypeID, year, "release", func(b *LeaveBalance) error {
		b.Pending = b.Pending.Sub(days)
		if b.Pending.IsNegative() {
			return balanceerrors.ErrInvalidAdjustment
		}
		b.recalcAvailable()
		return nil
	})
}

func (s *service) Confirm(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	if !days.IsPositive() {
		return balanceerrors.ErrInvalidDays
	}
	return s.mutate(ctx, employeeID, leaveTypeID, year, "confirm", func(b *LeaveBalance) error {
		b.Pending = b.Pending.Sub(days)
		if b.Pending.IsNegative() {
			return balanceerrors.ErrInvalidAdjustment
		}
		b.Used = b.Used.Add(days)
		b.recalcAvailable()
		return nil
	})
}

func (s *service) Deduct(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	if !days.IsPositive() {
		return balanceerrors.ErrInvalidDays
	}
	return s.mutate(ctx, employeeID, leaveTypeID, year, "deduct", func(b *LeaveBalance) error {
		if b.Available.LessThan(days) {
			return balanceerrors.ErrInsufficientBalance
		}
		b.Used = b.Used.Add(days)
		b.recalcAvailable()
		return nil
	})
}

// mutate runs a read-modify-write cycle on one ledger record under a
// row lock, enforcing the non-negativity postconditions before commit.
func (s *service) mutate(
	ctx context.Context,
	employeeID, leaveTypeID uuid.UUID,
	year int,
	op string,
	apply func(b *LeaveBalance) error,
) error {
	repo, commit, rollback, err := s.begin(ctx)
	if err != nil {
		s.logger.Error(op+" balance begin tx failed", zap.Error(err))
		return err
	}
	defer rollback()

	b, err := repo.FindByKey(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return balanceerrors.ErrBalanceNotFound
		}
		s.logger.Error(op+" balance lookup failed", zap.Error(err))
		return err
	}

	if err := apply(b); err != nil {
		return err
	}
	if b.Used.IsNegative() || b.Pending.IsNegative() || b.Available.IsNegative() {
		return balanceerrors.ErrInvalidAdjustment
	}

	if err := repo.Update(ctx, b); err != nil {
		s.logger.Error(op+" balance persist failed", zap.Error(err))
		return err
	}
	if err := commit(); err != nil {
		s.logger.Error(op+" balance commit failed", zap.Error(err))
		return err
	}

	s.logger.Info("leave balance "+op,
		zap.String("employee_id", employeeID.String()),
		zap.String("leave_type_id", leaveTypeID.String()),
		zap.Int("year", year),
		zap.String("available", b.Available.StringFixed(2)),
		zap.String("pending", b.Pending.StringFixed(2)),
		zap.String("used", b.Used.StringFixed(2)),
	)
	return nil
}

func (s *service) GetEmployeeBalances(ctx context.Context, employeeID uuid.UUID, year int) ([]BalanceResponse, error) {
	key := fmt.Sprintf("balances:%s:%d", employeeID, year)
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		balances, err := s.repo.FindByEmployeeAndYear(ctx, employeeID, year)
		if err != nil {
			return nil, err
		}
		return mapToListResponse(balances), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]BalanceResponse), nil
}

func (s *service) GetBalance(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (BalanceResponse, error) {
	b, err := s.repo.FindByKey(ctx, employeeID, leaveTypeID, year)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceResponse{}, balanceerrors.ErrBalanceNotFound
		}
		return BalanceResponse{}, err
	}
	return mapToResponse(*b), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "duplicate key value")
}
