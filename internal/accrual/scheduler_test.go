package accrual_test

import (
	"context"
	"database/sql"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/accrual"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance"
	balanceerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance/errors"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavetype"
)

type fakeDirectory struct {
	ids []uuid.UUID
}

func (f *fakeDirectory) ActiveEmployeeIDs(ctx context.Context) ([]uuid.UUID, error) {
	return f.ids, nil
}

type fakeTypeCatalog struct {
	byFrequency map[string][]leavetype.LeaveType
	expiring    []leavetype.LeaveType
}

func (f *fakeTypeCatalog) FindByID(ctx context.Context, id string) (*leavetype.LeaveType, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTypeCatalog) FindActive(ctx context.Context) ([]leavetype.LeaveType, error) {
	return nil, nil
}

func (f *fakeTypeCatalog) FindActiveByFrequency(ctx context.Context, frequency string) ([]leavetype.LeaveType, error) {
	return f.byFrequency[frequency], nil
}

func (f *fakeTypeCatalog) FindCarryForwardExpiring(ctx context.Context) ([]leavetype.LeaveType, error) {
	return f.expiring, nil
}

type adjustCall struct {
	employeeID uuid.UUID
	year       int
	delta      decimal.Decimal
}

type allocateCall struct {
	employeeID     uuid.UUID
	year           int
	totalAllocated decimal.Decimal
	carriedForward decimal.Decimal
}

// fakeLedgerService records balance mutations issued by the scheduler.
type fakeLedgerService struct {
	adjusts     []adjustCall
	allocates   []allocateCall
	adjustErr   error
	allocateErr error
}

func (f *fakeLedgerService) WithTx(tx *sql.Tx) leavebalance.Service { return f }

func (f *fakeLedgerService) Allocate(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, totalAllocated, carriedForward decimal.Decimal) (leavebalance.BalanceResponse, error) {
	f.allocates = append(f.allocates, allocateCall{employeeID, year, totalAllocated, carriedForward})
	return leavebalance.BalanceResponse{}, f.allocateErr
}

func (f *fakeLedgerService) Adjust(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, delta decimal.Decimal) (leavebalance.BalanceResponse, error) {
	if f.adjustErr != nil {
		return leavebalance.BalanceResponse{}, f.adjustErr
	}
	f.adjusts = append(f.adjusts, adjustCall{employeeID, year, delta})
	return leavebalance.BalanceResponse{}, nil
}

func (f *fakeLedgerService) Reserve(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	return nil
}

func (f *fakeLedgerService) Release(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	return nil
}

func (f *fakeLedgerService) Confirm(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	return nil
}

func (f *fakeLedgerService) Deduct(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	return nil
}

func (f *fakeLedgerService) GetEmployeeBalances(ctx context.Context, employeeID uuid.UUID, year int) ([]leavebalance.BalanceResponse, error) {
	return nil, nil
}

func (f *fakeLedgerService) GetBalance(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (leavebalance.BalanceResponse, error) {
	return leavebalance.BalanceResponse{}, nil
}

// fakeLedgerStore is the raw repository view the scheduler uses for
// carry-forward lookups, expiry and cleanup.
type fakeLedgerStore struct {
	records       map[string]*leavebalance.LeaveBalance
	byType        []leavebalance.LeaveBalance
	updated       []leavebalance.LeaveBalance
	deletedCutoff int
}

func ledgerKey(employeeID, leaveTypeID uuid.UUID, year int) string {
	return employeeID.String() + ":" + leaveTypeID.String() + ":" + strconv.Itoa(year)
}

func (f *fakeLedgerStore) WithTx(tx *sql.Tx) leavebalance.Repository { return f }

func (f *fakeLedgerStore) Create(ctx context.Context, b *leavebalance.LeaveBalance) error { return nil }

func (f *fakeLedgerStore) FindByKey(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*leavebalance.LeaveBalance, error) {
	if b, ok := f.records[ledgerKey(employeeID, leaveTypeID, year)]; ok {
		return b, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLedgerStore) Update(ctx context.Context, b *leavebalance.LeaveBalance) error {
	f.updated = append(f.updated, *b)
	return nil
}

func (f *fakeLedgerStore) FindByEmployeeAndYear(ctx context.Context, employeeID uuid.UUID, year int) ([]leavebalance.LeaveBalance, error) {
	return nil, nil
}

func (f *fakeLedgerStore) FindByLeaveTypeAndYear(ctx context.Context, leaveTypeID uuid.UUID, year int) ([]leavebalance.LeaveBalance, error) {
	return f.byType, nil
}

func (f *fakeLedgerStore) DeleteOlderThan(ctx context.Context, year int) (int64, error) {
	f.deletedCutoff = year
	return 2, nil
}

func monthlyType(days string) leavetype.LeaveType {
	return leavetype.LeaveType{
		ID:                 uuid.New(),
		Name:               "Annual Leave",
		Code:               "ANNUAL",
		DefaultDaysPerYear: decimal.RequireFromString(days),
		IsActive:           true,
		AccrualFrequency:   leavetype.AccrualMonthly,
	}
}

func TestScheduler_RunMonthlyAccrual(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("accrues one twelfth rounded half-up", func(t *testing.T) {
		employeeID := uuid.New()
		directory := &fakeDirectory{ids: []uuid.UUID{employeeID}}
		catalog := &fakeTypeCatalog{byFrequency: map[string][]leavetype.LeaveType{
			leavetype.AccrualMonthly: {monthlyType("10")},
		}}
		ledger := &fakeLedgerService{}
		store := &fakeLedgerStore{}

		accrual.NewScheduler(directory, catalog, ledger, store).RunMonthlyAccrual(ctx, now)

		assert.Len(t, ledger.adjusts, 1)
		assert.Equal(t, "0.83", ledger.adjusts[0].delta.StringFixed(2))
		assert.Equal(t, 2026, ledger.adjusts[0].year)
	})

	t.Run("missing record falls back to allocation", func(t *testing.T) {
		employeeID := uuid.New()
		directory := &fakeDirectory{ids: []uuid.UUID{employeeID}}
		catalog := &fakeTypeCatalog{byFrequency: map[string][]leavetype.LeaveType{
			leavetype.AccrualMonthly: {monthlyType("12")},
		}}
		ledger := &fakeLedgerService{adjustErr: balanceerrors.ErrBalanceNotFound}
		store := &fakeLedgerStore{}

		accrual.NewScheduler(directory, catalog, ledger, store).RunMonthlyAccrual(ctx, now)

		assert.Len(t, ledger.allocates, 1)
		assert.Equal(t, "1.00", ledger.allocates[0].totalAllocated.StringFixed(2))
		assert.True(t, ledger.allocates[0].carriedForward.IsZero())
	})

	t.Run("zero accrual types are skipped", func(t *testing.T) {
		directory := &fakeDirectory{ids: []uuid.UUID{uuid.New()}}
		catalog := &fakeTypeCatalog{byFrequency: map[string][]leavetype.LeaveType{
			leavetype.AccrualMonthly: {monthlyType("0")},
		}}
		ledger := &fakeLedgerService{}
		store := &fakeLedgerStore{}

		accrual.NewScheduler(directory, catalog, ledger, store).RunMonthlyAccrual(ctx, now)

		assert.Empty(t, ledger.adjusts)
		assert.Empty(t, ledger.allocates)
	})
}

func TestScheduler_RunYearlyAccrual(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	employeeID := uuid.New()

	yearlyType := func(maxCarry *int) leavetype.LeaveType {
		return leavetype.LeaveType{
			ID:                  uuid.New(),
			Name:                "Annual Leave",
			Code:                "ANNUAL",
			DefaultDaysPerYear:  decimal.RequireFromString("12"),
			IsActive:            true,
			AccrualFrequency:    leavetype.AccrualYearly,
			AllowCarryForward:   true,
			MaxCarryForwardDays: maxCarry,
		}
	}

	t.Run("carry forward capped at the type limit", func(t *testing.T) {
		maxCarry := 5
		lt := yearlyType(&maxCarry)
		directory := &fakeDirectory{ids: []uuid.UUID{employeeID}}
		catalog := &fakeTypeCatalog{byFrequency: map[string][]leavetype.LeaveType{
			leavetype.AccrualYearly: {lt},
		}}
		ledger := &fakeLedgerService{}
		store := &fakeLedgerStore{records: map[string]*leavebalance.LeaveBalance{
			ledgerKey(employeeID, lt.ID, 2026): {
				EmployeeID:  employeeID,
				LeaveTypeID: lt.ID,
				Year:        2026,
				Available:   decimal.RequireFromString("7"),
			},
		}}

		accrual.NewScheduler(directory, catalog, ledger, store).RunYearlyAccrual(ctx, now)

		assert.Len(t, ledger.allocates, 1)
		assert.Equal(t, 2027, ledger.allocates[0].year)
		assert.Equal(t, "12.00", ledger.allocates[0].totalAllocated.StringFixed(2))
		assert.Equal(t, "5.00", ledger.allocates[0].carriedForward.StringFixed(2))
	})

	t.Run("carry forward below the cap passes through", func(t *testing.T) {
		maxCarry := 5
		lt := yearlyType(&maxCarry)
		directory := &fakeDirectory{ids: []uuid.UUID{employeeID}}
		catalog := &fakeTypeCatalog{byFrequency: map[string][]leavetype.LeaveType{
			leavetype.AccrualYearly: {lt},
		}}
		ledger := &fakeLedgerService{}
		store := &fakeLedgerStore{records: map[string]*leavebalance.LeaveBalance{
			ledgerKey(employeeID, lt.ID, 2026): {
				EmployeeID:  employeeID,
				LeaveTypeID: lt.ID,
				Year:        2026,
				Available:   decimal.RequireFromString("3.50"),
			},
		}}

		accrual.NewScheduler(directory, catalog, ledger, store).RunYearlyAccrual(ctx, now)

		assert.Len(t, ledger.allocates, 1)
		assert.Equal(t, "3.50", ledger.allocates[0].carriedForward.StringFixed(2))
	})

	t.Run("no prior record means no carry forward", func(t *testing.T) {
		lt := yearlyType(nil)
		directory := &fakeDirectory{ids: []uuid.UUID{employeeID}}
		catalog := &fakeTypeCatalog{byFrequency: map[string][]leavetype.LeaveType{
			leavetype.AccrualYearly: {lt},
		}}
		ledger := &fakeLedgerService{}
		store := &fakeLedgerStore{}

		accrual.NewScheduler(directory, catalog, ledger, store).RunYearlyAccrual(ctx, now)

		assert.Len(t, ledger.allocates, 1)
		assert.True(t, ledger.allocates[0].carriedForward.IsZero())
	})

	t.Run("duplicate allocation is skipped quietly", func(t *testing.T) {
		lt := yearlyType(nil)
		directory := &fakeDirectory{ids: []uuid.UUID{employeeID}}
		catalog := &fakeTypeCatalog{byFrequency: map[string][]leavetype.LeaveType{
			leavetype.AccrualYearly: {lt},
		}}
		ledger := &fakeLedgerService{allocateErr: balanceerrors.ErrDuplicateAllocation}
		store := &fakeLedgerStore{}

		accrual.NewScheduler(directory, catalog, ledger, store).RunYearlyAccrual(ctx, now)

		assert.Len(t, ledger.allocates, 1)
	})
}

func TestScheduler_RunCarryForwardExpiry(t *testing.T) {
	ctx := context.Background()
	expiryMonths := 3

	expiringType := func() leavetype.LeaveType {
		return leavetype.LeaveType{
			ID:                       uuid.New(),
			Code:                     "ANNUAL",
			AllowCarryForward:        true,
			CarryForwardExpiryMonths: &expiryMonths,
		}
	}

	t.Run("past the expiry month only the marker is zeroed", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		directory := &fakeDirectory{}
		catalog := &fakeTypeCatalog{expiring: []leavetype.LeaveType{expiringType()}}
		ledger := &fakeLedgerService{}
		store := &fakeLedgerStore{byType: []leavebalance.LeaveBalance{
			{
				ID:             uuid.New(),
				Year:           2026,
				TotalAllocated: decimal.RequireFromString("15"),
				Available:      decimal.RequireFromString("10"),
				CarriedForward: decimal.RequireFromString("3"),
			},
		}}

		accrual.NewScheduler(directory, catalog, ledger, store).RunCarryForwardExpiry(ctx, now)

		assert.Len(t, store.updated, 1)
		assert.True(t, store.updated[0].CarriedForward.IsZero())
		assert.Equal(t, "15.00", store.updated[0].TotalAllocated.StringFixed(2))
		assert.Equal(t, "10.00", store.updated[0].Available.StringFixed(2))
	})

	t.Run("within the expiry window nothing changes", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		directory := &fakeDirectory{}
		catalog := &fakeTypeCatalog{expiring: []leavetype.LeaveType{expiringType()}}
		ledger := &fakeLedgerService{}
		store := &fakeLedgerStore{byType: []leavebalance.LeaveBalance{
			{ID: uuid.New(), CarriedForward: decimal.RequireFromString("3")},
		}}

		accrual.NewScheduler(directory, catalog, ledger, store).RunCarryForwardExpiry(ctx, now)

		assert.Empty(t, store.updated)
	})

	t.Run("records without carry forward are skipped", func(t *testing.T) {
		now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
		directory := &fakeDirectory{}
		catalog := &fakeTypeCatalog{expiring: []leavetype.LeaveType{expiringType()}}
		ledger := &fakeLedgerService{}
		store := &fakeLedgerStore{byType: []leavebalance.LeaveBalance{
			{ID: uuid.New(), CarriedForward: decimal.Zero},
		}}

		accrual.NewScheduler(directory, catalog, ledger, store).RunCarryForwardExpiry(ctx, now)

		assert.Empty(t, store.updated)
	})
}

func TestScheduler_RunCleanup(t *testing.T) {
	ctx := context.Background()
	directory := &fakeDirectory{}
	catalog := &fakeTypeCatalog{}
	ledger := &fakeLedgerService{}
	store := &fakeLedgerStore{}

	accrual.NewScheduler(directory, catalog, ledger, store).RunCleanup(ctx, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 2023, store.deletedCutoff)
}
