package leaverequest_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/holiday"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leaverequest"
	requesterrors "github.com/HRMS-Dev-Team/hrms-backend/internal/leaverequest/errors"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavetype"
)

type fakeRequestRepository struct {
	createFn         func(ctx context.Context, r *leaverequest.LeaveRequest) error
	findByIDFn       func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error)
	updateFn         func(ctx context.Context, r *leaverequest.LeaveRequest) error
	findByEmployeeFn func(ctx context.Context, employeeID uuid.UUID) ([]leaverequest.LeaveRequest, error)
	hasOverlappingFn func(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time, excludeID *uuid.UUID) (bool, error)
}

func (f *fakeRequestRepository) WithTx(tx *sql.Tx) leaverequest.Repository { return f }

func (f *fakeRequestRepository) Create(ctx context.Context, r *leaverequest.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, r)
	}
	return nil
}

func (f *fakeRequestRepository) FindByID(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRequestRepository) Update(ctx context.Context, r *leaverequest.LeaveRequest) error {
	if f.updateFn != nil {
		return f.updateFn(ctx, r)
	}
	return nil
}

func (f *fakeRequestRepository) FindByEmployee(ctx context.Context, employeeID uuid.UUID) ([]leaverequest.LeaveRequest, error) {
	if f.findByEmployeeFn != nil {
		return f.findByEmployeeFn(ctx, employeeID)
	}
	return nil, nil
}

func (f *fakeRequestRepository) FindByCompanyAndStatus(ctx context.Context, companyID uuid.UUID, status string) ([]leaverequest.LeaveRequest, error) {
	return nil, nil
}

func (f *fakeRequestRepository) HasOverlapping(ctx context.Context, employeeID uuid.UUID, startDate, endDate time.Time, excludeID *uuid.UUID) (bool, error) {
	if f.hasOverlappingFn != nil {
		return f.hasOverlappingFn(ctx, employeeID, startDate, endDate, excludeID)
	}
	return false, nil
}

type fakeLeaveTypeRepository struct {
	findByIDFn func(ctx context.Context, id string) (*leavetype.LeaveType, error)
}

func (f *fakeLeaveTypeRepository) FindByID(ctx context.Context, id string) (*leavetype.LeaveType, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveTypeRepository) FindActive(ctx context.Context) ([]leavetype.LeaveType, error) {
	return nil, nil
}

func (f *fakeLeaveTypeRepository) FindActiveByFrequency(ctx context.Context, frequency string) ([]leavetype.LeaveType, error) {
	return nil, nil
}

func (f *fakeLeaveTypeRepository) FindCarryForwardExpiring(ctx context.Context) ([]leavetype.LeaveType, error) {
	return nil, nil
}

type fakeHolidayService struct {
	workingDays decimal.Decimal
}

func (f *fakeHolidayService) CalculateWorkingDays(ctx context.Context, startDate, endDate time.Time, startDayType, endDayType holiday.DayType, companyID *uuid.UUID) (decimal.Decimal, error) {
	return f.workingDays, nil
}

func (f *fakeHolidayService) IsHoliday(ctx context.Context, date time.Time, companyID *uuid.UUID) (bool, error) {
	return false, nil
}

func (f *fakeHolidayService) NextWorkingDay(ctx context.Context, date time.Time, companyID *uuid.UUID) (time.Time, error) {
	return date, nil
}

func (f *fakeHolidayService) PreviousWorkingDay(ctx context.Context, date time.Time, companyID *uuid.UUID) (time.Time, error) {
	return date, nil
}

func (f *fakeHolidayService) CountHolidays(ctx context.Context, startDate, endDate time.Time, companyID *uuid.UUID) (int, error) {
	return 0, nil
}

// fakeLedger records which balance operations ran.
type fakeLedger struct {
	reserved  []decimal.Decimal
	released  []decimal.Decimal
	confirmed []decimal.Decimal
	adjusted  []decimal.Decimal
	year      int
	err       error
}

func (f *fakeLedger) WithTx(tx *sql.Tx) leavebalance.Service { return f }

func (f *fakeLedger) Allocate(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, totalAllocated, carriedForward decimal.Decimal) (leavebalance.BalanceResponse, error) {
	return leavebalance.BalanceResponse{}, nil
}

func (f *fakeLedger) Adjust(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, delta decimal.Decimal) (leavebalance.BalanceResponse, error) {
	f.adjusted = append(f.adjusted, delta)
	f.year = year
	return leavebalance.BalanceResponse{}, f.err
}

func (f *fakeLedger) Reserve(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	f.reserved = append(f.reserved, days)
	f.year = year
	return f.err
}

func (f *fakeLedger) Release(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	f.released = append(f.released, days)
	f.year = year
	return f.err
}

func (f *fakeLedger) Confirm(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	f.confirmed = append(f.confirmed, days)
	f.year = year
	return f.err
}

func (f *fakeLedger) Deduct(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int, days decimal.Decimal) error {
	return f.err
}

func (f *fakeLedger) GetEmployeeBalances(ctx context.Context, employeeID uuid.UUID, year int) ([]leavebalance.BalanceResponse, error) {
	return nil, nil
}

func (f *fakeLedger) GetBalance(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (leavebalance.BalanceResponse, error) {
	return leavebalance.BalanceResponse{}, nil
}

type requestServiceDeps struct {
	db         *sql.DB
	sqlMock    sqlmock.Sqlmock
	service    leaverequest.Service
	repo       *fakeRequestRepository
	leaveTypes *fakeLeaveTypeRepository
	holidays   *fakeHolidayService
	ledger     *fakeLedger
}

func setupRequestServiceTest(t *testing.T) *requestServiceDeps {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)

	repo := &fakeRequestRepository{}
	leaveTypes := &fakeLeaveTypeRepository{}
	holidays := &fakeHolidayService{workingDays: decimal.RequireFromString("3")}
	ledger := &fakeLedger{}
	svc := leaverequest.NewService(db, repo, leaveTypes, holidays, ledger, nil)

	return &requestServiceDeps{
		db:         db,
		sqlMock:    sqlMock,
		service:    svc,
		repo:       repo,
		leaveTypes: leaveTypes,
		holidays:   holidays,
		ledger:     ledger,
	}
}

func expectRequestTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func activeLeaveType(id uuid.UUID) *leavetype.LeaveType {
	return &leavetype.LeaveType{
		ID:                 id,
		Name:               "Annual Leave",
		Code:               "ANNUAL",
		DefaultDaysPerYear: decimal.RequireFromString("12"),
		IsActive:           true,
	}
}

func TestRequestService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()

	start := time.Now().UTC().AddDate(0, 0, 30)
	end := start.AddDate(0, 0, 2)
	req := leaverequest.CreateLeaveRequestRequest{
		LeaveTypeID: leaveTypeID.String(),
		StartDate:   start.Format("2006-01-02"),
		EndDate:     end.Format("2006-01-02"),
		Reason:      "Family trip",
	}

	t.Run("success reserves balance and persists pending", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, true)
		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			assert.Equal(t, leaveTypeID.String(), id)
			return activeLeaveType(leaveTypeID), nil
		}
		deps.repo.createFn = func(ctx context.Context, r *leaverequest.LeaveRequest) error {
			assert.Equal(t, leaverequest.StatusPending, r.Status)
			assert.Equal(t, "3.00", r.TotalDays.StringFixed(2))
			assert.Equal(t, string(holiday.FullDay), r.StartDayType)
			return nil
		}

		resp, err := deps.service.Create(ctx, companyID, employeeID, req)

		assert.NoError(t, err)
		assert.Equal(t, leaverequest.StatusPending, resp.Status)
		assert.Len(t, deps.ledger.reserved, 1)
		assert.Equal(t, "3.00", deps.ledger.reserved[0].StringFixed(2))
		assert.Equal(t, start.Year(), deps.ledger.year)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("zero working days skips reservation but is accepted", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, true)
		deps.holidays.workingDays = decimal.Zero
		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return activeLeaveType(leaveTypeID), nil
		}

		resp, err := deps.service.Create(ctx, companyID, employeeID, req)

		assert.NoError(t, err)
		assert.Equal(t, leaverequest.StatusPending, resp.Status)
		assert.Empty(t, deps.ledger.reserved)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative insufficient notice", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			lt := activeLeaveType(leaveTypeID)
			lt.MinNoticeDays = 60
			return lt, nil
		}

		_, err := deps.service.Create(ctx, companyID, employeeID, req)

		assert.ErrorIs(t, err, requesterrors.ErrInsufficientNotice)
		assert.Empty(t, deps.ledger.reserved)
	})

	t.Run("negative exceeds max consecutive days", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		maxDays := 2
		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			lt := activeLeaveType(leaveTypeID)
			lt.MaxConsecutiveDays = &maxDays
			return lt, nil
		}

		_, err := deps.service.Create(ctx, companyID, employeeID, req)

		assert.ErrorIs(t, err, requesterrors.ErrExceedsMaxConsecutive)
	})

	t.Run("negative overlapping request", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, false)
		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			return activeLeaveType(leaveTypeID), nil
		}
		deps.repo.hasOverlappingFn = func(ctx context.Context, eid uuid.UUID, s, e time.Time, excludeID *uuid.UUID) (bool, error) {
			assert.Nil(t, excludeID)
			return true, nil
		}

		_, err := deps.service.Create(ctx, companyID, employeeID, req)

		assert.ErrorIs(t, err, requesterrors.ErrOverlappingLeave)
		assert.Empty(t, deps.ledger.reserved)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative missing document", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, false)
		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			lt := activeLeaveType(leaveTypeID)
			lt.RequiresDocument = true
			return lt, nil
		}

		_, err := deps.service.Create(ctx, companyID, employeeID, req)

		assert.ErrorIs(t, err, requesterrors.ErrMissingDocument)
		assert.Empty(t, deps.ledger.reserved)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative inactive leave type", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		deps.leaveTypes.findByIDFn = func(ctx context.Context, id string) (*leavetype.LeaveType, error) {
			lt := activeLeaveType(leaveTypeID)
			lt.IsActive = false
			return lt, nil
		}

		_, err := deps.service.Create(ctx, companyID, employeeID, req)

		assert.ErrorIs(t, err, requesterrors.ErrLeaveTypeInactive)
	})

	t.Run("negative end before start", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		bad := req
		bad.StartDate = end.Format("2006-01-02")
		bad.EndDate = start.Format("2006-01-02")

		_, err := deps.service.Create(ctx, companyID, employeeID, bad)

		assert.ErrorIs(t, err, requesterrors.ErrInvalidDateRange)
	})
}

func pendingRequest(id, employeeID, leaveTypeID uuid.UUID, days string) *leaverequest.LeaveRequest {
	return &leaverequest.LeaveRequest{
		ID:          id,
		CompanyID:   uuid.New(),
		EmployeeID:  employeeID,
		LeaveTypeID: leaveTypeID,
		StartDate:   time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 6, 3, 0, 0, 0, 0, time.UTC),
		TotalDays:   decimal.RequireFromString(days),
		Status:      leaverequest.StatusPending,
	}
}

func TestRequestService_Approve(t *testing.T) {
	ctx := context.Background()
	requestID := uuid.New()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()
	approverID := uuid.New()

	t.Run("success confirms reserved days", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(id, employeeID, leaveTypeID, "3"), nil
		}
		deps.repo.updateFn = func(ctx context.Context, r *leaverequest.LeaveRequest) error {
			assert.Equal(t, leaverequest.StatusApproved, r.Status)
			assert.NotNil(t, r.ApproverID)
			assert.NotNil(t, r.ApprovedAt)
			return nil
		}

		resp, err := deps.service.Approve(ctx, requestID, approverID, "Jane Manager")

		assert.NoError(t, err)
		assert.Equal(t, leaverequest.StatusApproved, resp.Status)
		assert.Len(t, deps.ledger.confirmed, 1)
		assert.Equal(t, "3.00", deps.ledger.confirmed[0].StringFixed(2))
		assert.Equal(t, 2026, deps.ledger.year)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("zero-day request approves without balance movement", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(id, employeeID, leaveTypeID, "0"), nil
		}

		_, err := deps.service.Approve(ctx, requestID, approverID, "Jane Manager")

		assert.NoError(t, err)
		assert.Empty(t, deps.ledger.confirmed)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already approved", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, false)
		deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
			r := pendingRequest(id, employeeID, leaveTypeID, "3")
			r.Status = leaverequest.StatusApproved
			return r, nil
		}

		_, err := deps.service.Approve(ctx, requestID, approverID, "Jane Manager")

		assert.ErrorIs(t, err, requesterrors.ErrInvalidStatusTransition)
		assert.Empty(t, deps.ledger.confirmed)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative modification requested is not approvable", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, false)
		deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
			r := pendingRequest(id, employeeID, leaveTypeID, "3")
			r.Status = leaverequest.StatusModificationRequested
			return r, nil
		}

		_, err := deps.service.Approve(ctx, requestID, approverID, "Jane Manager")

		assert.ErrorIs(t, err, requesterrors.ErrInvalidStatusTransition)
		assert.Empty(t, deps.ledger.confirmed)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestRequestService_Reject(t *testing.T) {
	ctx := context.Background()
	requestID := uuid.New()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()
	approverID := uuid.New()

	t.Run("success releases reserved days", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(id, employeeID, leaveTypeID, "3"), nil
		}
		deps.repo.updateFn = func(ctx context.Context, r *leaverequest.LeaveRequest) error {
			assert.Equal(t, leaverequest.StatusRejected, r.Status)
			assert.NotNil(t, r.RejectionReason)
			assert.Equal(t, "Coverage gap", *r.RejectionReason)
			return nil
		}

		_, err := deps.service.Reject(ctx, requestID, approverID, "Jane Manager", "Coverage gap")

		assert.NoError(t, err)
		assert.Len(t, deps.ledger.released, 1)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative reason required", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		_, err := deps.service.Reject(ctx, requestID, approverID, "Jane Manager", "")

		assert.ErrorIs(t, err, requesterrors.ErrReasonRequired)
	})
}

func TestRequestService_Cancel(t *testing.T) {
	ctx := context.Background()
	requestID := uuid.New()
	employeeID := uuid.New()
	leaveTypeID := uuid.New()

	t.Run("pending cancel releases reservation", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(id, employeeID, leaveTypeID, "3"), nil
		}

		_, err := deps.service.Cancel(ctx, requestID, employeeID, "Plans changed")

		assert.NoError(t, err)
		assert.Len(t, deps.ledger.released, 1)
		assert.Empty(t, deps.ledger.adjusted)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("approved cancel refunds via adjustment", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, true)
		deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
			r := pendingRequest(id, employeeID, leaveTypeID, "3")
			r.Status = leaverequest.StatusApproved
			return r, nil
		}

		_, err := deps.service.Cancel(ctx, requestID, employeeID, "Plans changed")

		assert.NoError(t, err)
		assert.Empty(t, deps.ledger.released)
		assert.Len(t, deps.ledger.adjusted, 1)
		assert.Equal(t, "3.00", deps.ledger.adjusted[0].StringFixed(2))
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative not the owner", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, false)
		deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
			return pendingRequest(id, employeeID, leaveTypeID, "3"), nil
		}

		_, err := deps.service.Cancel(ctx, requestID, uuid.New(), "Plans changed")

		assert.ErrorIs(t, err, requesterrors.ErrNotRequestOwner)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})

	t.Run("negative already cancelled", func(t *testing.T) {
		deps := setupRequestServiceTest(t)
		defer deps.db.Close()

		expectRequestTx(t, deps.sqlMock, false)
		deps.repo.findByIDFn = func(ctx context.Context, id uuid.UUID) (*leaverequest.LeaveRequest, error) {
			r := pendingRequest(id, employeeID, leaveTypeID, "3")
			r.Status = leaverequest.StatusCancelled
			return r, nil
		}

		_, err := deps.service.Cancel(ctx, requestID, employeeID, "Plans changed")

		assert.ErrorIs(t, err, requesterrors.ErrInvalidStatusTransition)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}
