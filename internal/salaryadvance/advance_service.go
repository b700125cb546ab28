package salaryadvance

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	advanceerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/salaryadvance/errors"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/counter"
)

// minimumAdvance is the smallest amount an employee may request.
var minimumAdvance = decimal.NewFromInt(50)

// Service owns the salary advance lifecycle:
// REQUESTED -> APPROVED -> ACTIVE -> PAID_OFF, with REJECTED and
// CANCELLED as terminal branches off REQUESTED. Approval derives the
// installment amount and generates the repayment schedule in the same
// transaction.
//
//go:generate mockgen -source=advance_service.go -destination=mock/advance_service_mock.go -package=mock
type Service interface {
	Request(ctx context.Context, companyID, employeeID uuid.UUID, req RequestAdvanceRequest) (AdvanceResponse, error)
	Approve(ctx context.Context, id uuid.UUID, approverName string, req ApproveAdvanceRequest) (AdvanceResponse, error)
	Reject(ctx context.Context, id uuid.UUID, approverName, reason string) (AdvanceResponse, error)
	Cancel(ctx context.Context, id, requesterID uuid.UUID, requesterName string) (AdvanceResponse, error)
	Activate(ctx context.Context, id uuid.UUID, actorName string) (AdvanceResponse, error)

	GetByID(ctx context.Context, id uuid.UUID) (AdvanceResponse, error)
	GetByEmployee(ctx context.Context, employeeID uuid.UUID) ([]AdvanceResponse, error)
	History(ctx context.Context, id uuid.UUID) ([]AuditResponse, error)
	HistoryByActor(ctx context.Context, actor string) ([]AuditResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	audit    *AuditTrail
	counters counter.Repository
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, audit *AuditTrail, logger ...*zap.Logger) Service {
	return NewServiceWithCounter(db, repo, audit, nil, logger...)
}

// NewServiceWithCounter also assigns a per-company reference number to
// every new request.
func NewServiceWithCounter(db *sql.DB, repo Repository, audit *AuditTrail, counters counter.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("salaryadvance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("salaryadvance.service")
	}
	return &service{db: db, repo: repo, audit: audit, counters: counters, logger: l}
}

func (s *service) Request(ctx context.Context, companyID, employeeID uuid.UUID, req RequestAdvanceRequest) (AdvanceResponse, error) {
	s.logger.Debug("request advance requested",
		zap.String("company_id", companyID.String()),
		zap.String("employee_id", employeeID.String()),
		zap.String("amount", req.Amount),
		zap.Int("installments", req.Installments),
	)

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return AdvanceResponse{}, advanceerrors.ErrInvalidAmount
	}
	if amount.LessThan(minimumAdvance) {
		return AdvanceResponse{}, advanceerrors.ErrAmountTooSmall
	}
	if req.Installments < 1 {
		return AdvanceResponse{}, advanceerrors.ErrInvalidInstallments
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("request advance begin tx failed", zap.Error(err))
		return AdvanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	open, err := qtx.HasOpenAdvance(ctx, employeeID)
	if err != nil {
		s.logger.Error("request advance open check failed", zap.Error(err))
		return AdvanceResponse{}, err
	}
	if open {
		s.logger.Warn("request advance rejected, open advance exists",
			zap.String("employee_id", employeeID.String()),
		)
		return AdvanceResponse{}, advanceerrors.ErrActiveAdvanceExists
	}

	currency := req.Currency
	if currency == "" {
		currency = "IDR"
	}

	var referenceNo string
	if s.counters != nil {
		seq, err := s.counters.GetNextValue(ctx, companyID.String(), counter.TypeSalaryAdvance)
		if err != nil {
			s.logger.Error("request advance reference number failed", zap.Error(err))
			return AdvanceResponse{}, err
		}
		referenceNo = counter.FormatReference("SA", time.Now().UTC().Year(), seq)
	}

	a := &SalaryAdvance{
		ID:              uuid.New(),
		CompanyID:       companyID,
		EmployeeID:      employeeID,
		ReferenceNo:     referenceNo,
		RequestedAmount: amount,
		Installments:    req.Installments,
		Currency:        currency,
		Reason:          req.Reason,
		Status:          StatusRequested,
	}
	if err := qtx.Create(ctx, a); err != nil {
		s.logger.Error("request advance persist failed", zap.Error(err))
		return AdvanceResponse{}, err
	}

	if err := s.audit.withRepo(qtx).Record(ctx, a.ID, AuditActionRequested, employeeID.String(), map[string]string{
		"amount":       amount.StringFixed(2),
		"installments": strconv.Itoa(req.Installments),
		"currency":     currency,
	}); err != nil {
		return AdvanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("request advance commit failed", zap.Error(err))
		return AdvanceResponse{}, err
	}
	s.logger.Info("salary advance requested",
		zap.String("advance_id", a.ID.String()),
		zap.String("employee_id", employeeID.String()),
	)

	return mapToResponse(*a), nil
}

func (s *service) Approve(ctx context.Context, id uuid.UUID, approverName string, req ApproveAdvanceRequest) (AdvanceResponse, error) {
	s.logger.Debug("approve advance requested",
		zap.String("advance_id", id.String()),
		zap.String("approver", approverName),
	)

	approved, err := decimal.NewFromString(req.ApprovedAmount)
	if err != nil || !approved.IsPositive() {
		return AdvanceResponse{}, advanceerrors.ErrInvalidAmount
	}
	start, err := time.Parse("2006-01-02", req.ScheduledRepaymentStart)
	if err != nil {
		return AdvanceResponse{}, advanceerrors.ErrSchedulePrecondition
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("approve advance begin tx failed", zap.Error(err))
		return AdvanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	a, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AdvanceResponse{}, advanceerrors.ErrAdvanceNotFound
		}
		return AdvanceResponse{}, err
	}
	if a.Status != StatusRequested {
		return AdvanceResponse{}, advanceerrors.ErrInvalidStatusTransition
	}
	if approved.GreaterThan(a.RequestedAmount) {
		s.logger.Warn("approve advance rejected, amount exceeds requested",
			zap.String("advance_id", id.String()),
			zap.String("approved", approved.StringFixed(2)),
			zap.String("requested", a.RequestedAmount.StringFixed(2)),
		)
		return AdvanceResponse{}, advanceerrors.ErrAmountExceedsRequested
	}

	// Equal installments rounded half-up; the final schedule row
	// absorbs whatever rounding remainder is left.
	installment := approved.DivRound(decimal.NewFromInt(int64(a.Installments)), 2)
	now := time.Now().UTC()
	a.Status = StatusApproved
	a.ApprovedAmount = &approved
	a.InstallmentAmount = &installment
	a.ScheduledRepaymentStart = &start
	a.ApprovedBy = &approverName
	a.ApprovedAt = &now
	if err := qtx.Update(ctx, a); err != nil {
		s.logger.Error("approve advance persist failed", zap.Error(err))
		return AdvanceResponse{}, err
	}

	rows, err := buildSchedule(a)
	if err != nil {
		return AdvanceResponse{}, err
	}
	if err := qtx.CreateScheduleBatch(ctx, rows); err != nil {
		s.logger.Error("approve advance schedule persist failed", zap.Error(err))
		return AdvanceResponse{}, err
	}

	if err := s.audit.withRepo(qtx).Record(ctx, a.ID, AuditActionApproved, approverName, map[string]string{
		"approved_amount":    approved.StringFixed(2),
		"installment_amount": installment.StringFixed(2),
		"installments":       strconv.Itoa(a.Installments),
		"repayment_start":    req.ScheduledRepaymentStart,
	}); err != nil {
		return AdvanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("approve advance commit failed", zap.Error(err))
		return AdvanceResponse{}, err
	}
	s.logger.Info("salary advance approved",
		zap.String("advance_id", id.String()),
		zap.String("approved_amount", approved.StringFixed(2)),
		zap.Int("installments", a.Installments),
	)

	return mapToResponse(*a), nil
}

func (s *service) Reject(ctx context.Context, id uuid.UUID, approverName, reason string) (AdvanceResponse, error) {
	return s.transition(ctx, id, StatusRequested, nil, func(a *SalaryAdvance, now time.Time) (string, map[string]string) {
		a.Status = StatusRejected
		a.RejectedBy = &approverName
		a.RejectedAt = &now
		a.RejectionReason = &reason
		return AuditActionRejected, map[string]string{"reason": reason}
	}, approverName)
}

func (s *service) Cancel(ctx context.Context, id, requesterID uuid.UUID, requesterName string) (AdvanceResponse, error) {
	guard := func(a *SalaryAdvance) error {
		if a.EmployeeID != requesterID {
			return advanceerrors.ErrAdvanceNotFound
		}
		return nil
	}
	return s.transition(ctx, id, StatusRequested, guard, func(a *SalaryAdvance, now time.Time) (string, map[string]string) {
		a.Status = StatusCancelled
		a.CancelledBy = &requesterName
		a.CancelledAt = &now
		return AuditActionCancelled, nil
	}, requesterName)
}

func (s *service) Activate(ctx context.Context, id uuid.UUID, actorName string) (AdvanceResponse, error) {
	return s.transition(ctx, id, StatusApproved, nil, func(a *SalaryAdvance, now time.Time) (string, map[string]string) {
		a.Status = StatusActive
		a.ActivatedBy = &actorName
		a.ActivatedAt = &now
		return AuditActionActivated, nil
	}, actorName)
}

// transition applies a single status change guarded by the expected
// current status, writing the matching audit entry in the same
// transaction.
func (s *service) transition(
	ctx context.Context,
	id uuid.UUID,
	expectedStatus string,
	guard func(a *SalaryAdvance) error,
	apply func(a *SalaryAdvance, now time.Time) (string, map[string]string),
	actor string,
) (AdvanceResponse, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("advance transition begin tx failed", zap.Error(err))
		return AdvanceResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	a, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AdvanceResponse{}, advanceerrors.ErrAdvanceNotFound
		}
		return AdvanceResponse{}, err
	}
	if guard != nil {
		if err := guard(a); err != nil {
			return AdvanceResponse{}, err
		}
	}
	if a.Status != expectedStatus {
		s.logger.Warn("advance transition invalid status",
			zap.String("advance_id", id.String()),
			zap.String("status", a.Status),
			zap.String("expected", expectedStatus),
		)
		return AdvanceResponse{}, advanceerrors.ErrInvalidStatusTransition
	}

	action, details := apply(a, time.Now().UTC())
	if err := qtx.Update(ctx, a); err != nil {
		s.logger.Error("advance transition persist failed", zap.Error(err))
		return AdvanceResponse{}, err
	}
	if err := s.audit.withRepo(qtx).Record(ctx, a.ID, action, actor, details); err != nil {
		return AdvanceResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("advance transition commit failed", zap.Error(err))
		return AdvanceResponse{}, err
	}
	s.logger.Info("salary advance transitioned",
		zap.String("advance_id", id.String()),
		zap.String("status", a.Status),
	)

	return mapToResponse(*a), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (AdvanceResponse, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AdvanceResponse{}, advanceerrors.ErrAdvanceNotFound
		}
		return AdvanceResponse{}, err
	}
	return mapToResponse(*a), nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID uuid.UUID) ([]AdvanceResponse, error) {
	advances, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(advances), nil
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]AuditResponse, error) {
	entries, err := s.audit.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAuditToListResponse(entries), nil
}

func (s *service) HistoryByActor(ctx context.Context, actor string) ([]AuditResponse, error) {
	entries, err := s.audit.HistoryByActor(ctx, actor)
	if err != nil {
		return nil, err
	}
	return mapAuditToListResponse(entries), nil
}
