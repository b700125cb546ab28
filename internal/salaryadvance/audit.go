package salaryadvance

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	AuditActionRequested       = "REQUESTED"
	AuditActionApproved        = "APPROVED"
	AuditActionRejected        = "REJECTED"
	AuditActionCancelled       = "CANCELLED"
	AuditActionActivated       = "ACTIVATED"
	AuditActionPaymentRecorded = "PAYMENT_RECORDED"
	AuditActionPaidOff         = "PAID_OFF"
)

// AuditTrail appends state-change entries for salary advances. Entries
// are write-once; there is no update or delete path.
type AuditTrail struct {
	repo   Repository
	logger *zap.Logger
}

func NewAuditTrail(repo Repository, logger ...*zap.Logger) *AuditTrail {
	l := zap.L().Named("salaryadvance.audit")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("salaryadvance.audit")
	}
	return &AuditTrail{repo: repo, logger: l}
}

func (a *AuditTrail) withRepo(repo Repository) *AuditTrail {
	return &AuditTrail{repo: repo, logger: a.logger}
}

// Record writes one audit entry. details may be nil.
func (a *AuditTrail) Record(ctx context.Context, advanceID uuid.UUID, action, actor string, details map[string]string) error {
	var payload json.RawMessage
	if len(details) > 0 {
		raw, err := json.Marshal(details)
		if err != nil {
			a.logger.Error("marshal audit details failed",
				zap.String("advance_id", advanceID.String()),
				zap.String("action", action),
				zap.Error(err),
			)
			return err
		}
		payload = raw
	}

	entry := &SalaryAdvanceAudit{
		ID:              uuid.New(),
		SalaryAdvanceID: advanceID,
		Action:          action,
		Actor:           actor,
		Details:         payload,
		CreatedAt:       time.Now().UTC(),
	}
	if err := a.repo.CreateAudit(ctx, entry); err != nil {
		a.logger.Error("audit persist failed",
			zap.String("advance_id", advanceID.String()),
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (a *AuditTrail) History(ctx context.Context, advanceID uuid.UUID) ([]SalaryAdvanceAudit, error) {
	return a.repo.FindAuditByAdvance(ctx, advanceID)
}

func (a *AuditTrail) HistoryByActor(ctx context.Context, actor string) ([]SalaryAdvanceAudit, error) {
	return a.repo.FindAuditByActor(ctx, actor)
}
