package leavebalance_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance"
	balanceerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance/errors"
)

type fakeBalanceRepository struct {
	withTxFn                func(tx *sql.Tx) leavebalance.Repository
	createFn                func(ctx context.Context, b *leavebalance.LeaveBalance) error
	findByKeyFn             func(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*leavebalance.LeaveBalance, error)
	updateFn                func(ctx context.Context, b *leavebalance.LeaveBalance) error
	findByEmployeeAndYearFn func(ctx context.Context, employeeID uuid.UUID, year int) ([]leavebalance.LeaveBalance, error)
	findByLeaveTypeAndYear  func(ctx context.Context, leaveTypeID uuid.UUID, year int) ([]leavebalance.LeaveBalance, error)
	deleteOlderThanFn       func(ctx context.Context, year int) (int64, error)
}

func (f *fakeBalanceRepository) WithTx(tx *sql.Tx) leavebalance.Repository {
	if f.withTxFn != nil {
		return f.withTxFn(tx)
	}
	return f
}

func (f *fakeBalanceRepository) Create(ctx context.Context, b *leavebalance.LeaveBalance) error {
	if f.createFn != nil {
		return f.createFn(ctx, b)
	}
	return nil
}

func (f *fakeBalanceRepository) FindByKey(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
	if f.findByKeyFn != nil {
		return f.findByKeyFn(ctx, employeeID, leaveTypeID, year)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBalanceRepository) Update(ctx context.Context, b *leavebalance.LeaveBalance) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, b)
	}
	return nil
}

func (f *fakeBalanceRepository) FindByEmployeeAndYear(ctx context.Context, employeeID uuid.UUID, year int) ([]leavebalance.LeaveBalance, error) {
	if f.findByEmployeeAndYearFn != nil {
		return f.findByEmployeeAndYearFn(ctx, employeeID, year)
	}
	return nil, nil
}

func (f *fakeBalanceRepository) FindByLeaveTypeAndYear(ctx context.Context, leaveTypeID uuid.UUID, year int) ([]leavebalance.LeaveBalance, error) {
	if f.findByLeaveTypeAndYear != nil {
		return f.findByLeaveTypeAndYear(ctx, leaveTypeID, year)
	}
	return nil, nil
}

func (f *fakeBalanceRepository) DeleteOlderThan(ctx context.Context, year int) (int64, error) {
	if f.deleteOlderThanFn != nil {
		return f.deleteOlderThanFn(ctx, year)
	}
	return 0, nil
}

type balanceServiceDeps struct {
	db      *sql.DB
	sqlMock sqlmock.Sqlmock
	service leavebalance.Service
	repo    *fakeBalanceRepository
}

func setupBalanceServiceTest(t *testing.T) *balanceServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeBalanceRepository{}
	svc := leavebalance.NewService(db, repo)

	return &balanceServiceDeps{db: db, sqlMock: sqlMock, service: svc, repo: repo}
}

func expectBalanceTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func ledgerRecord(employeeID, leaveTypeID uuid.UUID, year int, total, used, pending, carried string) *leavebalance.LeaveBalance {
	t := decimal.RequireFromString(total)
	u := decimal.RequireFromString(used)
	p := decimal.RequireFromString(pending)
	return &leavebalance.LeaveBalance{
		ID:             uuid.New(),
		EmployeeID:     employeeID,
		LeaveTypeID:    leaveTypeID,
		Year:           year,
		TotalAllocated: t,
		Used:           u,
		Pending:        p,
		Available:      t.Sub(u).Sub(p),
		CarriedForward: decimal.RequireFromString(carried),
	}
}

func TestBalanceService_Allocate(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()

	t.Run("success adds carry forward into total", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, true)
		deps.repo.createFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			assert.Equal(t, "15.00", b.TotalAllocated.StringFixed(2))
			assert.Equal(t, "15.00", b.Available.StringFixed(2))
			assert.Equal(t, "3.00", b.CarriedForward.StringFixed(2))
			assert.True(t, b.Used.IsZero())
			assert.True(t, b.Pending.IsZero())
			return nil
		}

		resp, err := deps.service.Allocate(ctx, employeeID, leaveTypeID, 2026,
			decimal.RequireFromString("12"), decimal.RequireFromString("3"))

		assert.NoError(t, err)
		assert.Equal(t, "15.00", resp.TotalAllocated)
		assert.Equal(t, "15.00", resp.Available)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative duplicate allocation", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, false)
		deps.repo.findByKeyFn = func(ctx context.Context, eid, ltid uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
			return ledgerRecord(eid, ltid, year, "12", "0", "0", "0"), nil
		}

		_, err := deps.service.Allocate(ctx, employeeID, leaveTypeID, 2026,
			decimal.RequireFromString("12"), decimal.Zero)

		assert.ErrorIs(t, err, balanceerrors.ErrDuplicateAllocation)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestBalanceService_ReserveReleaseConfirm(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()
	three := decimal.RequireFromString("3")

	t.Run("reserve moves days into pending", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, true)
		deps.repo.findByKeyFn = func(ctx context.Context, eid, ltid uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
			return ledgerRecord(eid, ltid, year, "12", "2", "0", "0"), nil
		}
		deps.repo.updateFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			assert.Equal(t, "3.00", b.Pending.StringFixed(2))
			assert.Equal(t, "7.00", b.Available.StringFixed(2))
			assert.Equal(t, "2.00", b.Used.StringFixed(2))
			return nil
		}

		err := deps.service.Reserve(ctx, employeeID, leaveTypeID, 2026, three)

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative reserve beyond available leaves record untouched", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, false)
		updated := false
		deps.repo.findByKeyFn = func(ctx context.Context, eid, ltid uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
			return ledgerRecord(eid, ltid, year, "12", "10", "0", "0"), nil
		}
		deps.repo.updateFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			updated = true
			return nil
		}

		err := deps.service.Reserve(ctx, employeeID, leaveTypeID, 2026, three)

		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
		assert.False(t, updated)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative reserve zero days", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		err := deps.service.Reserve(ctx, employeeID, leaveTypeID, 2026, decimal.Zero)

		assert.ErrorIs(t, err, balanceerrors.ErrInvalidDays)
	})

	t.Run("release after reserve restores available", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, true)
		deps.repo.findByKeyFn = func(ctx context.Context, eid, ltid uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
			return ledgerRecord(eid, ltid, year, "12", "2", "3", "0"), nil
		}
		deps.repo.updateFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			assert.True(t, b.Pending.IsZero())
			assert.Equal(t, "10.00", b.Available.StringFixed(2))
			return nil
		}

		err := deps.service.Release(ctx, employeeID, leaveTypeID, 2026, three)

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative release more than pending", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, false)
		deps.repo.findByKeyFn = func(ctx context.Context, eid, ltid uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
			return ledgerRecord(eid, ltid, year, "12", "2", "1", "0"), nil
		}

		err := deps.service.Release(ctx, employeeID, leaveTypeID, 2026, three)

		assert.ErrorIs(t, err, balanceerrors.ErrInvalidAdjustment)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("confirm moves pending into used", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, true)
		deps.repo.findByKeyFn = func(ctx context.Context, eid, ltid uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
			return ledgerRecord(eid, ltid, year, "12", "2", "3", "0"), nil
		}
		deps.repo.updateFn = func(ctx context.Context, b *leavebalance.LeaveBalance) error {
			assert.True(t, b.Pending.IsZero())
			assert.Equal(t, "5.00", b.Used.StringFixed(2))
			assert.Equal(t, "7.00", b.Available.StringFixed(2))
			return nil
		}

		err := deps.service.Confirm(ctx, employeeID, leaveTypeID, 2026, three)

		assert.NoError(t, err)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative balance not found", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, false)

		err := deps.service.Confirm(ctx, employeeID, leaveTypeID, 2026, three)

		assert.ErrorIs(t, err, balanceerrors.ErrBalanceNotFound)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestBalanceService_Adjust(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()

	t.Run("positive delta raises allocation and available", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, true)
		deps.repo.findByKeyFn = func(ctx context.Context, eid, ltid uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
			return ledgerRecord(eid, ltid, year, "12", "4", "1", "0"), nil
		}

		resp, err := deps.service.Adjust(ctx, employeeID, leaveTypeID, 2026, decimal.RequireFromString("1"))

		assert.NoError(t, err)
		assert.Equal(t, "13.00", resp.TotalAllocated)
		assert.Equal(t, "8.00", resp.Available)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative delta below committed days", func(t *testing.T) {
		deps := setupBalanceServiceTest(t)
		defer deps.db.Close()

		expectBalanceTx(t, deps.sqlMock, false)
		deps.repo.findByKeyFn = func(ctx context.Context, eid, ltid uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
			return ledgerRecord(eid, ltid, year, "12", "10", "1", "0"), nil
		}

		_, err := deps.service.Adjust(ctx, employeeID, leaveTypeID, 2026, decimal.RequireFromString("-2"))

		assert.ErrorIs(t, err, balanceerrors.ErrInsufficientBalance)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestBalanceService_GetEmployeeBalances(t *testing.T) {
	ctx := context.Background()
	employeeID := uuid.New()

	deps := setupBalanceServiceTest(t)
	defer deps.db.Close()

	deps.repo.findByEmployeeAndYearFn = func(ctx context.Context, eid uuid.UUID, year int) ([]leavebalance.LeaveBalance, error) {
		assert.Equal(t, employeeID, eid)
		assert.Equal(t, 2026, year)
		return []leavebalance.LeaveBalance{
			*ledgerRecord(eid, uuid.New(), year, "12", "2", "1", "0"),
		}, nil
	}

	resp, err := deps.service.GetEmployeeBalances(ctx, employeeID, 2026)

	assert.NoError(t, err)
	assert.Len(t, resp, 1)
	assert.Equal(t, "9.00", resp[0].Available)
}
