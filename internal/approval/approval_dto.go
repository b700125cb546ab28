package approval

import "time"

type WorkflowStepInput struct {
	Level         string `json:"level" binding:"required,oneof=LEVEL_1 LEVEL_2 LEVEL_3 LEVEL_4"`
	ApproverID    string `json:"approver_id" binding:"required,uuid"`
	ApproverName  string `json:"approver_name" binding:"required"`
	SequenceOrder int    `json:"sequence_order" binding:"required,min=1"`
	IsRequired    *bool  `json:"is_required"`
}

type CreateWorkflowRequest struct {
	LeaveRequestID string              `json:"leave_request_id" binding:"required,uuid"`
	Steps          []WorkflowStepInput `json:"steps" binding:"required,dive"`
}

type ApproveStepRequest struct {
	Comments string `json:"comments"`
}

type RejectStepRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type DelegateStepRequest struct {
	NewApproverID   string `json:"new_approver_id" binding:"required,uuid"`
	NewApproverName string `json:"new_approver_name" binding:"required"`
}

type WorkflowResponse struct {
	ID             string  `json:"id"`
	LeaveRequestID string  `json:"leave_request_id"`
	Level          string  `json:"level"`
	ApproverID     string  `json:"approver_id"`
	ApproverName   string  `json:"approver_name"`
	SequenceOrder  int     `json:"sequence_order"`
	IsRequired     bool    `json:"is_required"`
	Status         string  `json:"status"`
	Comments       *string `json:"comments"`
	ActionedAt     *string `json:"actioned_at"`
	CreatedAt      string  `json:"created_at"`
}

func mapToResponse(step ApprovalWorkflow) WorkflowResponse {
	resp := WorkflowResponse{
		ID:             step.ID.String(),
		LeaveRequestID: step.LeaveRequestID.String(),
		Level:          step.Level,
		ApproverID:     step.ApproverID.String(),
		ApproverName:   step.ApproverName,
		SequenceOrder:  step.SequenceOrder,
		IsRequired:     step.IsRequired,
		Status:         step.Status,
		Comments:       step.Comments,
		CreatedAt:      step.CreatedAt.Format(time.RFC3339),
	}
	if step.ActionedAt != nil {
		v := step.ActionedAt.Format(time.RFC3339)
		resp.ActionedAt = &v
	}
	return resp
}

func mapToListResponse(steps []ApprovalWorkflow) []WorkflowResponse {
	resp := make([]WorkflowResponse, len(steps))
	for i, step := range steps {
		resp[i] = mapToResponse(step)
	}
	return resp
}
