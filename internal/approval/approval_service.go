package approval

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	approvalerrors "github.com/HRMS-Dev-Team/hrms-backend/internal/approval/errors"
	"github.com/HRMS-Dev-Team/hrms-backend/internal/leaverequest"
)

// Service drives the ordered approval chain of a leave request. Steps
// clear strictly in sequence order; the engine finalizes the parent
// request (approve or reject, balance moves included) in the same
// transaction as the step transition.
//
//go:generate mockgen -source=approval_service.go -destination=mock/approval_service_mock.go -package=mock
type Service interface {
	CreateWorkflow(ctx context.Context, req CreateWorkflowRequest) ([]WorkflowResponse, error)
	ProcessApproval(ctx context.Context, workflowID, approverID uuid.UUID, comments string) (WorkflowResponse, error)
	ProcessRejection(ctx context.Context, workflowID, approverID uuid.UUID, reason string) (WorkflowResponse, error)
	Delegate(ctx context.Context, workflowID, currentApproverID, newApproverID uuid.UUID, newApproverName string) (WorkflowResponse, error)
	PendingFor(ctx context.Context, approverID uuid.UUID) ([]WorkflowResponse, error)
	GetByRequest(ctx context.Context, leaveRequestID uuid.UUID) ([]WorkflowResponse, error)
}

type service struct {
	db       *sql.DB
	repo     Repository
	requests leaverequest.Service
	logger   *zap.Logger
}

func NewService(db *sql.DB, repo Repository, requests leaverequest.Service, logger ...*zap.Logger) Service {
	l := zap.L().Named("approval.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("approval.service")
	}
	return &service{db: db, repo: repo, requests: requests, logger: l}
}

func (s *service) CreateWorkflow(ctx context.Context, req CreateWorkflowRequest) ([]WorkflowResponse, error) {
	s.logger.Debug("create approval workflow requested",
		zap.String("leave_request_id", req.LeaveRequestID),
		zap.Int("steps", len(req.Steps)),
	)

	if len(req.Steps) == 0 {
		return nil, approvalerrors.ErrNoSteps
	}
	leaveRequestID, err := uuid.Parse(req.LeaveRequestID)
	if err != nil {
		return nil, approvalerrors.ErrWorkflowNotFound
	}

	seen := make(map[int]struct{}, len(req.Steps))
	steps := make([]ApprovalWorkflow, 0, len(req.Steps))
	for _, in := range req.Steps {
		if _, dup := seen[in.SequenceOrder]; dup || in.SequenceOrder < 1 {
			return nil, approvalerrors.ErrInvalidSequence
		}
		seen[in.SequenceOrder] = struct{}{}

		approverID, err := uuid.Parse(in.ApproverID)
		if err != nil {
			return nil, approvalerrors.ErrInvalidSequence
		}
		required := true
		if in.IsRequired != nil {
			required = *in.IsRequired
		}
		steps = append(steps, ApprovalWorkflow{
			ID:             uuid.New(),
			LeaveRequestID: leaveRequestID,
			Level:          in.Level,
			ApproverID:     approverID,
			ApproverName:   in.ApproverName,
			SequenceOrder:  in.SequenceOrder,
			IsRequired:     required,
			Status:         StatusPending,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create approval workflow begin tx failed", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)
	if err := qtx.CreateBatch(ctx, steps); err != nil {
		s.logger.Error("create approval workflow persist failed", zap.Error(err))
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		s.logger.Error("create approval workflow commit failed", zap.Error(err))
		return nil, err
	}

	s.logger.Info("approval workflow created",
		zap.String("leave_request_id", req.LeaveRequestID),
		zap.Int("steps", len(steps)),
	)
	return mapToListResponse(steps), nil
}

func (s *service) ProcessApproval(ctx context.Context, workflowID, approverID uuid.UUID, comments string) (WorkflowResponse, error) {
	s.logger.Debug("process approval requested",
		zap.String("workflow_id", workflowID.String()),
		zap.String("approver_id", approverID.String()),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("process approval begin tx failed", zap.Error(err))
		return WorkflowResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	step, err := qtx.FindByID(ctx, workflowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WorkflowResponse{}, approvalerrors.ErrWorkflowNotFound
		}
		return WorkflowResponse{}, err
	}
	if step.ApproverID != approverID {
		s.logger.Warn("process approval by non-approver",
			zap.String("workflow_id", workflowID.String()),
			zap.String("approver_id", approverID.String()),
		)
		return WorkflowResponse{}, approvalerrors.ErrNotApprover
	}
	if step.Status != StatusPending {
		return WorkflowResponse{}, approvalerrors.ErrAlreadyProcessed
	}

	siblings, err := qtx.FindByRequest(ctx, step.LeaveRequestID)
	if err != nil {
		s.logger.Error("process approval load siblings failed", zap.Error(err))
		return WorkflowResponse{}, err
	}
	for _, sibling := range siblings {
		if sibling.SequenceOrder < step.SequenceOrder && sibling.Status != StatusApproved {
			s.logger.Warn("process approval blocked by earlier level",
				zap.String("workflow_id", workflowID.String()),
				zap.Int("blocked_by_sequence", sibling.SequenceOrder),
			)
			return WorkflowResponse{}, approvalerrors.ErrPriorLevelsIncomplete
		}
	}

	now := time.Now().UTC()
	step.Status = StatusApproved
	step.ActionedAt = &now
	if comments != "" {
		step.Comments = &comments
	}
	if err := qtx.Update(ctx, step); err != nil {
		s.logger.Error("process approval persist failed", zap.Error(err))
		return WorkflowResponse{}, err
	}

	if allRequiredApproved(siblings, step) {
		last := highestSequenceApproved(siblings, step)
		if _, err := s.requests.WithTx(tx).Approve(ctx, step.LeaveRequestID, last.ApproverID, last.ApproverName); err != nil {
			s.logger.Error("finalize leave request approval failed",
				zap.String("leave_request_id", step.LeaveRequestID.String()),
				zap.Error(err),
			)
			return WorkflowResponse{}, err
		}
		s.logger.Info("leave request fully approved via workflow",
			zap.String("leave_request_id", step.LeaveRequestID.String()),
		)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("process approval commit failed", zap.Error(err))
		return WorkflowResponse{}, err
	}
	s.logger.Info("approval step approved",
		zap.String("workflow_id", workflowID.String()),
		zap.Int("sequence_order", step.SequenceOrder),
	)

	return mapToResponse(*step), nil
}

func (s *service) ProcessRejection(ctx context.Context, workflowID, approverID uuid.UUID, reason string) (WorkflowResponse, error) {
	s.logger.Debug("process rejection requested",
		zap.String("workflow_id", workflowID.String()),
		zap.String("approver_id", approverID.String()),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("process rejection begin tx failed", zap.Error(err))
		return WorkflowResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	step, err := qtx.FindByID(ctx, workflowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WorkflowResponse{}, approvalerrors.ErrWorkflowNotFound
		}
		return WorkflowResponse{}, err
	}
	if step.ApproverID != approverID {
		return WorkflowResponse{}, approvalerrors.ErrNotApprover
	}
	if step.Status != StatusPending {
		return WorkflowResponse{}, approvalerrors.ErrAlreadyProcessed
	}

	now := time.Now().UTC()
	step.Status = StatusRejected
	step.ActionedAt = &now
	step.Comments = &reason
	if err := qtx.Update(ctx, step); err != nil {
		s.logger.Error("process rejection persist failed", zap.Error(err))
		return WorkflowResponse{}, err
	}

	// A rejection anywhere in the chain short-circuits the workflow:
	// every other still-pending step is closed out with it.
	siblings, err := qtx.FindByRequest(ctx, step.LeaveRequestID)
	if err != nil {
		s.logger.Error("process rejection load siblings failed", zap.Error(err))
		return WorkflowResponse{}, err
	}
	cascade := fmt.Sprintf("Auto-rejected: %s rejected this request at %s", step.ApproverName, step.Level)
	for i := range siblings {
		if siblings[i].ID == step.ID || siblings[i].Status != StatusPending {
			continue
		}
		siblings[i].Status = StatusRejected
		siblings[i].ActionedAt = &now
		siblings[i].Comments = &cascade
		if err := qtx.Update(ctx, &siblings[i]); err != nil {
			s.logger.Error("cascade rejection persist failed",
				zap.String("workflow_id", siblings[i].ID.String()),
				zap.Error(err),
			)
			return WorkflowResponse{}, err
		}
	}

	if _, err := s.requests.WithTx(tx).Reject(ctx, step.LeaveRequestID, approverID, step.ApproverName, reason); err != nil {
		s.logger.Error("finalize leave request rejection failed",
			zap.String("leave_request_id", step.LeaveRequestID.String()),
			zap.Error(err),
		)
		return WorkflowResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("process rejection commit failed", zap.Error(err))
		return WorkflowResponse{}, err
	}
	s.logger.Info("approval step rejected",
		zap.String("workflow_id", workflowID.String()),
		zap.String("leave_request_id", step.LeaveRequestID.String()),
	)

	return mapToResponse(*step), nil
}

func (s *service) Delegate(ctx context.Context, workflowID, currentApproverID, newApproverID uuid.UUID, newApproverName string) (WorkflowResponse, error) {
	s.logger.Debug("delegate approval requested",
		zap.String("workflow_id", workflowID.String()),
		zap.String("current_approver_id", currentApproverID.String()),
		zap.String("new_approver_id", newApproverID.String()),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("delegate approval begin tx failed", zap.Error(err))
		return WorkflowResponse{}, err
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	step, err := qtx.FindByID(ctx, workflowID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return WorkflowResponse{}, approvalerrors.ErrWorkflowNotFound
		}
		return WorkflowResponse{}, err
	}
	if step.ApproverID != currentApproverID {
		return WorkflowResponse{}, approvalerrors.ErrNotApprover
	}
	if step.Status != StatusPending {
		return WorkflowResponse{}, approvalerrors.ErrAlreadyProcessed
	}

	note := fmt.Sprintf("Delegated from %s to %s", step.ApproverName, newApproverName)
	if step.Comments != nil && *step.Comments != "" {
		note = *step.Comments + "; " + note
	}
	step.ApproverID = newApproverID
	step.ApproverName = newApproverName
	step.Comments = &note
	if err := qtx.Update(ctx, step); err != nil {
		s.logger.Error("delegate approval persist failed", zap.Error(err))
		return WorkflowResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("delegate approval commit failed", zap.Error(err))
		return WorkflowResponse{}, err
	}
	s.logger.Info("approval step delegated",
		zap.String("workflow_id", workflowID.String()),
		zap.String("new_approver_id", newApproverID.String()),
	)

	return mapToResponse(*step), nil
}

// PendingFor returns only the steps the approver can act on now: a
// pending step blocked by an unapproved earlier level is filtered out.
func (s *service) PendingFor(ctx context.Context, approverID uuid.UUID) ([]WorkflowResponse, error) {
	pending, err := s.repo.FindPendingByApprover(ctx, approverID)
	if err != nil {
		return nil, err
	}

	siblingsByRequest := make(map[uuid.UUID][]ApprovalWorkflow)
	actionable := make([]ApprovalWorkflow, 0, len(pending))
	for _, step := range pending {
		siblings, ok := siblingsByRequest[step.LeaveRequestID]
		if !ok {
			siblings, err = s.repo.FindByRequest(ctx, step.LeaveRequestID)
			if err != nil {
				return nil, err
			}
			siblingsByRequest[step.LeaveRequestID] = siblings
		}

		blocked := false
		for _, sibling := range siblings {
			if sibling.SequenceOrder < step.SequenceOrder && sibling.Status != StatusApproved {
				blocked = true
				break
			}
		}
		if !blocked {
			actionable = append(actionable, step)
		}
	}

	return mapToListResponse(actionable), nil
}

func (s *service) GetByRequest(ctx context.Context, leaveRequestID uuid.UUID) ([]WorkflowResponse, error) {
	steps, err := s.repo.FindByRequest(ctx, leaveRequestID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(steps), nil
}

// allRequiredApproved reports whether every required step is approved,
// counting the in-flight step at its new status.
func allRequiredApproved(siblings []ApprovalWorkflow, current *ApprovalWorkflow) bool {
	for _, sibling := range siblings {
		if !sibling.IsRequired {
			continue
		}
		status := sibling.Status
		if sibling.ID == current.ID {
			status = current.Status
		}
		if status != StatusApproved {
			return false
		}
	}
	return true
}

// highestSequenceApproved picks the approver recorded on the parent
// request: the approved step with the highest sequence order.
func highestSequenceApproved(siblings []ApprovalWorkflow, current *ApprovalWorkflow) *ApprovalWorkflow {
	last := current
	for i := range siblings {
		sibling := &siblings[i]
		status := sibling.Status
		if sibling.ID == current.ID {
			continue
		}
		if status == StatusApproved && sibling.SequenceOrder > last.SequenceOrder {
			last = sibling
		}
	}
	return last
}
