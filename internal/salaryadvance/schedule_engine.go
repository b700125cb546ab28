package salaryadvance

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/HRMS-Dev-Team/hrms-backend/internal/events"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/messaging/kafka"
	advanceerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/salaryadvance/errors"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/shared/contextutil"
)

// ScheduleEngine amortizes an approved advance into monthly
// installments and applies payments against them. The due amounts of a
// generated schedule always sum to the approved amount exactly; the
// last installment absorbs the rounding remainder.
//
//go:generate mockgen -source=schedule_engine.go -destination=mock/schedule_engine_mock.go -package=mock
type ScheduleEngine interface {
	RecordPayment(ctx context.Context, scheduleID uuid.UUID, amount decimal.Decimal, reference, notes, actor string) (ScheduleResponse, error)
	GetSchedule(ctx context.Context, advanceID uuid.UUID) ([]ScheduleResponse, error)
	OverdueRepayments(ctx context.Context, asOf time.Time) ([]ScheduleResponse, error)
	OutstandingBalance(ctx context.Context, advanceID uuid.UUID) (OutstandingResponse, error)
}

type scheduleEngine struct {
	db     *sql.DB
	repo   Repository
	audit  *AuditTrail
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewScheduleEngine(db *sql.DB, repo Repository, audit *AuditTrail, outbox kafka.OutboxRepository, logger ...*zap.Logger) ScheduleEngine {
	l := zap.L().Named("salaryadvance.schedule")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("salaryadvance.schedule")
	}
	return &scheduleEngine{db: db, repo: repo, audit: audit, outbox: outbox, logger: l}
}

// buildSchedule derives the N installment rows for an approved
// advance. The caller persists them inside its own transaction.
func buildSchedule(a *SalaryAdvance) ([]RepaymentSchedule, error) {
	if a.ApprovedAmount == nil || a.InstallmentAmount == nil || a.ScheduledRepaymentStart == nil {
		return nil, advanceerrors.ErrSchedulePrecondition
	}
	if a.Installments < 1 {
		return nil, advanceerrors.ErrInvalidInstallments
	}

	n := a.Installments
	installment := *a.InstallmentAmount
	approved := *a.ApprovedAmount
	start := *a.ScheduledRepaymentStart

	rows := make([]RepaymentSchedule, n)
	for i := 1; i <= n; i++ {
		due := installment
		if i == n {
			due = approved.Sub(installment.Mul(decimal.NewFromInt(int64(n - 1))))
		}
		rows[i-1] = RepaymentSchedule{
			ID:              uuid.New(),
			SalaryAdvanceID: a.ID,
			InstallmentNo:   i,
			DueDate:         start.AddDate(0, i-1, 0),
			DueAmount:       due,
			Status:          ScheduleStatusPending,
		}
	}
	return rows, nil
}

func (e *scheduleEngine) RecordPayment(ctx context.Context, scheduleID uuid.UUID, amount decimal.Decimal, reference, notes, actor string) (ScheduleResponse, error) {
	e.logger.Debug("record payment requested",
		zap.String("schedule_id", scheduleID.String()),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("reference", reference),
	)

	if !amount.IsPositive() {
		return ScheduleResponse{}, advanceerrors.ErrInvalidAmount
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		e.logger.Error("record payment begin tx failed", zap.Error(err))
		return ScheduleResponse{}, err
	}
	defer tx.Rollback()

	qtx := e.repo.WithTx(tx)
	audit := e.audit.withRepo(qtx)

	row, err := qtx.FindScheduleByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ScheduleResponse{}, advanceerrors.ErrScheduleNotFound
		}
		return ScheduleResponse{}, err
	}
	if row.Status == ScheduleStatusPaid {
		return ScheduleResponse{}, advanceerrors.ErrAlreadyPaid
	}

	cumulative := amount
	if row.PaidAmount != nil {
		cumulative = row.PaidAmount.Add(amount)
	}
	row.PaidAmount = &cumulative
	row.PaymentReference = &reference
	switch {
	case cumulative.GreaterThanOrEqual(row.DueAmount):
		now := time.Now().UTC()
		row.Status = ScheduleStatusPaid
		row.PaidAt = &now
	case cumulative.IsPositive():
		row.Status = ScheduleStatusPartial
	}
	if err := qtx.UpdateSchedule(ctx, row); err != nil {
		e.logger.Error("record payment persist failed", zap.Error(err))
		return ScheduleResponse{}, err
	}

	details := map[string]string{
		"installment_no": strconv.Itoa(row.InstallmentNo),
		"amount":         amount.StringFixed(2),
		"cumulative":     cumulative.StringFixed(2),
		"reference":      reference,
		"status":         row.Status,
	}
	if notes != "" {
		details["notes"] = notes
	}
	if err := audit.Record(ctx, row.SalaryAdvanceID, AuditActionPaymentRecorded, actor, details); err != nil {
		return ScheduleResponse{}, err
	}

	if err := e.settleIfPaidOff(ctx, tx, qtx, audit, row.SalaryAdvanceID, actor); err != nil {
		return ScheduleResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		e.logger.Error("record payment commit failed", zap.Error(err))
		return ScheduleResponse{}, err
	}
	e.logger.Info("payment recorded",
		zap.String("schedule_id", scheduleID.String()),
		zap.String("advance_id", row.SalaryAdvanceID.String()),
		zap.String("status", row.Status),
	)

	return mapScheduleToResponse(*row), nil
}

// settleIfPaidOff transitions an ACTIVE advance to PAID_OFF once the
// outstanding balance across all installments reaches zero.
func (e *scheduleEngine) settleIfPaidOff(ctx context.Context, tx *sql.Tx, qtx Repository, audit *AuditTrail, advanceID uuid.UUID, actor string) error {
	rows, err := qtx.FindScheduleByAdvance(ctx, advanceID)
	if err != nil {
		return err
	}

	outstanding := decimal.Zero
	for _, row := range rows {
		outstanding = outstanding.Add(row.DueAmount)
		if row.PaidAmount != nil {
			outstanding = outstanding.Sub(*row.PaidAmount)
		}
	}
	if outstanding.IsPositive() {
		return nil
	}

	a, err := qtx.FindByID(ctx, advanceID)
	if err != nil {
		return err
	}
	if a.Status != StatusActive {
		return nil
	}

	now := time.Now().UTC()
	a.Status = StatusPaidOff
	a.PaidOffAt = &now
	if err := qtx.Update(ctx, a); err != nil {
		e.logger.Error("pay off advance persist failed",
			zap.String("advance_id", advanceID.String()),
			zap.Error(err),
		)
		return err
	}

	if err := audit.Record(ctx, advanceID, AuditActionPaidOff, actor, map[string]string{
		"outstanding": outstanding.StringFixed(2),
	}); err != nil {
		return err
	}

	if err := e.enqueuePaidOffEvent(ctx, tx, a, now); err != nil {
		return err
	}

	e.logger.Info("salary advance paid off", zap.String("advance_id", advanceID.String()))
	return nil
}

func (e *scheduleEngine) enqueuePaidOffEvent(ctx context.Context, tx *sql.Tx, a *SalaryAdvance, occurredAt time.Time) error {
	if e.outbox == nil {
		return nil
	}

	approved := ""
	if a.ApprovedAmount != nil {
		approved = a.ApprovedAmount.StringFixed(2)
	}
	event := events.AdvancePaidOffEvent{
		EventType:      "advance_paid_off",
		AdvanceID:      a.ID.String(),
		EmployeeID:     a.EmployeeID.String(),
		ApprovedAmount: approved,
		OccurredAt:     occurredAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		e.logger.Error("marshal advance paid off event failed", zap.Error(err))
		return err
	}

	return e.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "salary_advance",
		AggregateID:   a.ID.String(),
		EventType:     event.EventType,
		Topic:         events.AdvancePaidOffTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func (e *scheduleEngine) GetSchedule(ctx context.Context, advanceID uuid.UUID) ([]ScheduleResponse, error) {
	rows, err := e.repo.FindScheduleByAdvance(ctx, advanceID)
	if err != nil {
		return nil, err
	}
	return mapScheduleToListResponse(rows), nil
}

func (e *scheduleEngine) OverdueRepayments(ctx context.Context, asOf time.Time) ([]ScheduleResponse, error) {
	rows, err := e.repo.FindOverdueSchedules(ctx, asOf)
	if err != nil {
		return nil, err
	}
	return mapScheduleToListResponse(rows), nil
}

// OutstandingBalance sums due minus paid across every schedule row of
// the advance. Overpaid rows reduce the total the same way partial
// payments increase it.
func (e *scheduleEngine) OutstandingBalance(ctx context.Context, advanceID uuid.UUID) (OutstandingResponse, error) {
	if _, err := e.repo.FindByID(ctx, advanceID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OutstandingResponse{}, advanceerrors.ErrAdvanceNotFound
		}
		return OutstandingResponse{}, err
	}

	rows, err := e.repo.FindScheduleByAdvance(ctx, advanceID)
	if err != nil {
		return OutstandingResponse{}, err
	}

	outstanding := decimal.Zero
	for _, row := range rows {
		outstanding = outstanding.Add(row.DueAmount)
		if row.PaidAmount != nil {
			outstanding = outstanding.Sub(*row.PaidAmount)
		}
	}
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}

	return OutstandingResponse{
		SalaryAdvanceID: advanceID.String(),
		Outstanding:     outstanding.StringFixed(2),
		Installments:    len(rows),
	}, nil
}
