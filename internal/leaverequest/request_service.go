package leaverequest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/events"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/holiday"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavebalance"
	requesterrors "github.com/HRMS-Dev-Team/hrms-backend/internal/leaverequest/errors"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leavetype"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/messaging/kafka"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/contextutil"
)

// Service owns the leave request state machine:
// PENDING -> APPROVED | REJECTED | CANCELLED, and APPROVED -> CANCELLED
// as a refund path. Every transition moves the matching balance in the
// same transaction.
//
//go:generate mockgen -source=request_service.go -destination=mock/request_service_mock.go -package=mock
type Service interface {
	// WithTx returns a service whose transitions run against the given
	// transaction and leave commit/rollback to the caller.
	WithTx(tx *sql.Tx) Service

	Create(ctx context.Context, companyID, employeeID uuid.UUID, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	Approve(ctx context.Context, id, approverID uuid.UUID, approverName string) (LeaveRequestResponse, error)
	Reject(ctx context.Context, id, approverID uuid.UUID, approverName, reason string) (LeaveRequestResponse, error)
	Cancel(ctx context.Context, id, requesterID uuid.UUID, reason string) (LeaveRequestResponse, error)

	GetByID(ctx context.Context, id uuid.UUID) (LeaveRequestResponse, error)
	GetByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveRequestResponse, error)
}

type service struct {
	db         *sql.DB
	repo       Repository
	tx         *sql.Tx
	leaveTypes leavetype.Repository
	holidays   holiday.Service
	balances   leavebalance.Service
	outbox     kafka.OutboxRepository
	logger     *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	leaveTypes leavetype.Repository,
	holidays holiday.Service,
	balances leavebalance.Service,
	outbox kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leaverequest.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leaverequest.service")
	}
	return &service{
		db:         db,
		repo:       repo,
		leaveTypes: leaveTypes,
		holidays:   holidays,
		balances:   balances,
		outbox:     outbox,
		logger:     l,
	}
}

func (s *service) WithTx(tx *sql.Tx) Service {
	return &service{
		db:         s.db,
		repo:       s.repo,
		tx:         tx,
		leaveTypes: s.leaveTypes,
		holidays:   s.holidays,
		balances:   s.balances,
		outbox:     s.outbox,
		logger:     s.logger,
	}
}

// begin resolves the transaction scope for a transition. When the
// service is tx-bound the caller owns commit/rollback and the returned
// commit/rollback functions are no-ops.
func (s *service) begin(ctx context.Context) (*sql.Tx, func() error, func(), error) {
	if s.tx != nil {
		return s.tx, func() error { return nil }, func() {}, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return tx, tx.Commit, func() { _ = tx.Rollback() }, nil
}

func (s *service) Create(ctx context.Context, companyID, employeeID uuid.UUID, req CreateLeaveRequestRequest) (LeaveRequestResponse, error) {
	s.logger.Debug("create leave request requested",
		zap.String("company_id", companyID.String()),
		zap.String("employee_id", employeeID.String()),
		zap.String("leave_type_id", req.LeaveTypeID),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	leaveTypeID, err := uuid.Parse(req.LeaveTypeID)
	if err != nil {
		return LeaveRequestResponse{}, requesterrors.ErrLeaveTypeNotFound
	}
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	if endDate.Before(startDate) {
		return LeaveRequestResponse{}, requesterrors.ErrInvalidDateRange
	}
	startDayType, err := parseDayType(req.StartDayType)
	if err != nil {
		return LeaveRequestResponse{}, err
	}
	endDayType, err := parseDayType(req.EndDayType)
	if err != nil {
		return LeaveRequestResponse{}, err
	}

	lt, err := s.leaveTypes.FindByID(ctx, leaveTypeID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, requesterrors.ErrLeaveTypeNotFound
		}
		s.logger.Error("create leave request leave type lookup failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if !lt.IsActive {
		return LeaveRequestResponse{}, requesterrors.ErrLeaveTypeInactive
	}

	if daysUntil(startDate) < lt.MinNoticeDays {
		s.logger.Warn("create leave request notice period violated",
			zap.String("employee_id", employeeID.String()),
			zap.String("start_date", req.StartDate),
			zap.Int("min_notice_days", lt.MinNoticeDays),
		)
		return LeaveRequestResponse{}, requesterrors.ErrInsufficientNotice
	}

	totalDays, err := s.holidays.CalculateWorkingDays(ctx, startDate, endDate, startDayType, endDayType, &companyID)
	if err != nil {
		s.logger.Error("create leave request working days failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if lt.MaxConsecutiveDays != nil && totalDays.GreaterThan(decimal.NewFromInt(int64(*lt.MaxConsecutiveDays))) {
		return LeaveRequestResponse{}, requesterrors.ErrExceedsMaxConsecutive
	}

	tx, commit, rollback, err := s.begin(ctx)
	if err != nil {
		s.logger.Error("create leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer rollback()

	qtx := s.repo.WithTx(tx)

	overlap, err := qtx.HasOverlapping(ctx, employeeID, startDate, endDate, nil)
	if err != nil {
		s.logger.Error("create leave request overlap check failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	if overlap {
		s.logger.Warn("create leave request overlap detected",
			zap.String("employee_id", employeeID.String()),
			zap.String("start_date", req.StartDate),
			zap.String("end_date", req.EndDate),
		)
		return LeaveRequestResponse{}, requesterrors.ErrOverlappingLeave
	}

	if lt.RequiresDocument && (req.DocumentURL == nil || *req.DocumentURL == "") {
		return LeaveRequestResponse{}, requesterrors.ErrMissingDocument
	}

	// Reservation is the last gate so no balance is held for requests
	// rejected on business-rule grounds. A request that touches no
	// working day reserves nothing.
	if totalDays.IsPositive() {
		if err := s.balances.WithTx(tx).Reserve(ctx, employeeID, leaveTypeID, startDate.Year(), totalDays); err != nil {
			return LeaveRequestResponse{}, err
		}
	}

	r := &LeaveRequest{
		ID:           uuid.New(),
		CompanyID:    companyID,
		EmployeeID:   employeeID,
		LeaveTypeID:  leaveTypeID,
		StartDate:    startDate,
		EndDate:      endDate,
		StartDayType: string(startDayType),
		EndDayType:   string(endDayType),
		TotalDays:    totalDays,
		Reason:       req.Reason,
		DocumentURL:  req.DocumentURL,
		Status:       StatusPending,
	}
	if err := qtx.Create(ctx, r); err != nil {
		s.logger.Error("create leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := commit(); err != nil {
		s.logger.Error("create leave request commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	s.logger.Info("leave request created",
		zap.String("request_id", r.ID.String()),
		zap.String("employee_id", employeeID.String()),
		zap.String("total_days", totalDays.StringFixed(2)),
	)

	return mapToResponse(*r), nil
}

func (s *service) Approve(ctx context.Context, id, approverID uuid.UUID, approverName string) (LeaveRequestResponse, error) {
	s.logger.Debug("approve leave request requested",
		zap.String("request_id", id.String()),
		zap.String("approver_id", approverID.String()),
	)

	tx, commit, rollback, err := s.begin(ctx)
	if err != nil {
		s.logger.Error("approve leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer rollback()

	qtx := s.repo.WithTx(tx)

	r, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if r.Status != StatusPending {
		s.logger.Warn("approve leave request invalid status",
			zap.String("request_id", id.String()),
			zap.String("status", r.Status),
		)
		return LeaveRequestResponse{}, requesterrors.ErrInvalidStatusTransition
	}

	if r.TotalDays.IsPositive() {
		if err := s.balances.WithTx(tx).Confirm(ctx, r.EmployeeID, r.LeaveTypeID, r.StartDate.Year(), r.TotalDays); err != nil {
			return LeaveRequestResponse{}, err
		}
	}

	now := time.Now().UTC()
	r.Status = StatusApproved
	r.ApproverID = &approverID
	r.ApproverName = &approverName
	r.ApprovedAt = &now
	if err := qtx.Update(ctx, r); err != nil {
		s.logger.Error("approve leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := s.enqueueApprovedEvent(ctx, tx, r, approverID, approverName, now); err != nil {
		return LeaveRequestResponse{}, err
	}

	if err := commit(); err != nil {
		s.logger.Error("approve leave request commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	s.logger.Info("leave request approved",
		zap.String("request_id", id.String()),
		zap.String("approver_id", approverID.String()),
	)

	return mapToResponse(*r), nil
}

func (s *service) enqueueApprovedEvent(ctx context.Context, tx *sql.Tx, r *LeaveRequest, approverID uuid.UUID, approverName string, occurredAt time.Time) error {
	if s.outbox == nil {
		return nil
	}

	event := events.LeaveApprovedEvent{
		EventType:    "leave_approved",
		RequestID:    r.ID.String(),
		EmployeeID:   r.EmployeeID.String(),
		LeaveTypeID:  r.LeaveTypeID.String(),
		StartDate:    r.StartDate.Format("2006-01-02"),
		EndDate:      r.EndDate.Format("2006-01-02"),
		TotalDays:    r.TotalDays.StringFixed(2),
		ApproverID:   approverID.String(),
		ApproverName: approverName,
		OccurredAt:   occurredAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("marshal leave approved event failed", zap.Error(err))
		return err
	}

	if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "leave_request",
		AggregateID:   r.ID.String(),
		EventType:     event.EventType,
		Topic:         events.LeaveApprovedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		s.logger.Error("approve leave request outbox persist failed",
			zap.String("request_id", r.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *service) Reject(ctx context.Context, id, approverID uuid.UUID, approverName, reason string) (LeaveRequestResponse, error) {
	if reason == "" {
		return LeaveRequestResponse{}, requesterrors.ErrReasonRequired
	}
	s.logger.Debug("reject leave request requested",
		zap.String("request_id", id.String()),
		zap.String("approver_id", approverID.String()),
	)

	tx, commit, rollback, err := s.begin(ctx)
	if err != nil {
		s.logger.Error("reject leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer rollback()

	qtx := s.repo.WithTx(tx)

	r, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if r.Status != StatusPending {
		return LeaveRequestResponse{}, requesterrors.ErrInvalidStatusTransition
	}

	if r.TotalDays.IsPositive() {
		if err := s.balances.WithTx(tx).Release(ctx, r.EmployeeID, r.LeaveTypeID, r.StartDate.Year(), r.TotalDays); err != nil {
			return LeaveRequestResponse{}, err
		}
	}

	r.Status = StatusRejected
	r.ApproverID = &approverID
	r.ApproverName = &approverName
	r.RejectionReason = &reason
	if err := qtx.Update(ctx, r); err != nil {
		s.logger.Error("reject leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := commit(); err != nil {
		s.logger.Error("reject leave request commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	s.logger.Info("leave request rejected",
		zap.String("request_id", id.String()),
		zap.String("approver_id", approverID.String()),
	)

	return mapToResponse(*r), nil
}

func (s *service) Cancel(ctx context.Context, id, requesterID uuid.UUID, reason string) (LeaveRequestResponse, error) {
	if reason == "" {
		return LeaveRequestResponse{}, requesterrors.ErrReasonRequired
	}
	s.logger.Debug("cancel leave request requested",
		zap.String("request_id", id.String()),
		zap.String("requester_id", requesterID.String()),
	)

	tx, commit, rollback, err := s.begin(ctx)
	if err != nil {
		s.logger.Error("cancel leave request begin tx failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	defer rollback()

	qtx := s.repo.WithTx(tx)

	r, err := qtx.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	if r.EmployeeID != requesterID {
		return LeaveRequestResponse{}, requesterrors.ErrNotRequestOwner
	}

	switch r.Status {
	case StatusPending:
		if r.TotalDays.IsPositive() {
			if err := s.balances.WithTx(tx).Release(ctx, r.EmployeeID, r.LeaveTypeID, r.StartDate.Year(), r.TotalDays); err != nil {
				return LeaveRequestResponse{}, err
			}
		}
	case StatusApproved:
		// An approved leave was already consumed, so the refund tops up
		// the allocation instead of unwinding a reservation.
		if r.TotalDays.IsPositive() {
			if _, err := s.balances.WithTx(tx).Adjust(ctx, r.EmployeeID, r.LeaveTypeID, r.StartDate.Year(), r.TotalDays); err != nil {
				return LeaveRequestResponse{}, err
			}
		}
	default:
		return LeaveRequestResponse{}, requesterrors.ErrInvalidStatusTransition
	}

	r.Status = StatusCancelled
	r.CancellationReason = &reason
	if err := qtx.Update(ctx, r); err != nil {
		s.logger.Error("cancel leave request persist failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}

	if err := commit(); err != nil {
		s.logger.Error("cancel leave request commit failed", zap.Error(err))
		return LeaveRequestResponse{}, err
	}
	s.logger.Info("leave request cancelled",
		zap.String("request_id", id.String()),
	)

	return mapToResponse(*r), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (LeaveRequestResponse, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return LeaveRequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return LeaveRequestResponse{}, err
	}
	return mapToResponse(*r), nil
}

func (s *service) GetByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveRequestResponse, error) {
	requests, err := s.repo.FindByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, requesterrors.ErrInvalidDateFormat
	}
	return t, nil
}

func parseDayType(v string) (holiday.DayType, error) {
	switch holiday.DayType(v) {
	case "":
		return holiday.FullDay, nil
	case holiday.FullDay, holiday.FirstHalf, holiday.SecondHalf:
		return holiday.DayType(v), nil
	default:
		return "", requesterrors.ErrInvalidDayType
	}
}

// daysUntil counts whole calendar days from today (UTC) to the start
// date. Requests starting today or earlier yield <= 0.
func daysUntil(startDate time.Time) int {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return int(startDate.Sub(today).Hours() / 24)
}
