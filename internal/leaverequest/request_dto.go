package leaverequest

import "time"

type CreateLeaveRequestRequest struct {
	LeaveTypeID  string  `json:"leave_type_id" binding:"required,uuid"`
	StartDate    string  `json:"start_date" binding:"required"`
	EndDate      string  `json:"end_date" binding:"required"`
	StartDayType string  `json:"start_day_type"`
	EndDayType   string  `json:"end_day_type"`
	Reason       string  `json:"reason" binding:"required"`
	DocumentURL  *string `json:"document_url"`
}

type RejectLeaveRequestRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CancelLeaveRequestRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type LeaveRequestResponse struct {
	ID                 string  `json:"id"`
	CompanyID          string  `json:"company_id"`
	EmployeeID         string  `json:"employee_id"`
	LeaveTypeID        string  `json:"leave_type_id"`
	StartDate          string  `json:"start_date"`
	EndDate            string  `json:"end_date"`
	StartDayType       string  `json:"start_day_type"`
	EndDayType         string  `json:"end_day_type"`
	TotalDays          string  `json:"total_days"`
	Reason             string  `json:"reason"`
	DocumentURL        *string `json:"document_url"`
	Status             string  `json:"status"`
	ApproverID         *string `json:"approver_id"`
	ApproverName       *string `json:"approver_name"`
	RejectionReason    *string `json:"rejection_reason"`
	CancellationReason *string `json:"cancellation_reason"`
	ApprovedAt         *string `json:"approved_at"`
	CreatedAt          string  `json:"created_at"`
}

func mapToResponse(r LeaveRequest) LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:                 r.ID.String(),
		CompanyID:          r.CompanyID.String(),
		EmployeeID:         r.EmployeeID.String(),
		LeaveTypeID:        r.LeaveTypeID.String(),
		StartDate:          r.StartDate.Format("2006-01-02"),
		EndDate:            r.EndDate.Format("2006-01-02"),
		StartDayType:       r.StartDayType,
		EndDayType:         r.EndDayType,
		TotalDays:          r.TotalDays.StringFixed(2),
		Reason:             r.Reason,
		DocumentURL:        r.DocumentURL,
		Status:             r.Status,
		ApproverName:       r.ApproverName,
		RejectionReason:    r.RejectionReason,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
	}
	if r.ApproverID != nil {
		v := r.ApproverID.String()
		resp.ApproverID = &v
	}
	if r.ApprovedAt != nil {
		v := r.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	return resp
}

func mapToListResponse(requests []LeaveRequest) []LeaveRequestResponse {
	resp := make([]LeaveRequestResponse, len(requests))
	for i, r := range requests {
		resp[i] = mapToResponse(r)
	}
	return resp
}
