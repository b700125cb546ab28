package salaryadvance

import "time"

type RequestAdvanceRequest struct {
	Amount       string `json:"amount" binding:"required"`
	Installments int    `json:"installments" binding:"required,min=1"`
	Currency     string `json:"currency"`
	Reason       string `json:"reason"`
}

type ApproveAdvanceRequest struct {
	ApprovedAmount          string `json:"approved_amount" binding:"required"`
	ScheduledRepaymentStart string `json:"scheduled_repayment_start" binding:"required"`
}

type RejectAdvanceRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type RecordPaymentRequest struct {
	Amount    string `json:"amount" binding:"required"`
	Reference string `json:"reference" binding:"required"`
	Notes     string `json:"notes"`
}

type AdvanceResponse struct {
	ID                      string  `json:"id"`
	CompanyID               string  `json:"company_id"`
	EmployeeID              string  `json:"employee_id"`
	ReferenceNo             string  `json:"reference_no,omitempty"`
	RequestedAmount         string  `json:"requested_amount"`
	ApprovedAmount          *string `json:"approved_amount"`
	Installments            int     `json:"installments"`
	InstallmentAmount       *string `json:"installment_amount"`
	Currency                string  `json:"currency"`
	Reason                  string  `json:"reason"`
	Status                  string  `json:"status"`
	ScheduledRepaymentStart *string `json:"scheduled_repayment_start"`
	ApprovedBy              *string `json:"approved_by"`
	ApprovedAt              *string `json:"approved_at"`
	RejectedBy              *string `json:"rejected_by"`
	RejectionReason         *string `json:"rejection_reason"`
	PaidOffAt               *string `json:"paid_off_at"`
	CreatedAt               string  `json:"created_at"`
}

type ScheduleResponse struct {
	ID               string  `json:"id"`
	SalaryAdvanceID  string  `json:"salary_advance_id"`
	InstallmentNo    int     `json:"installment_no"`
	DueDate          string  `json:"due_date"`
	DueAmount        string  `json:"due_amount"`
	PaidAmount       *string `json:"paid_amount"`
	Status           string  `json:"status"`
	PaidAt           *string `json:"paid_at"`
	PaymentReference *string `json:"payment_reference"`
}

type OutstandingResponse struct {
	SalaryAdvanceID string `json:"salary_advance_id"`
	Outstanding     string `json:"outstanding"`
	Installments    int    `json:"installments"`
}

type AuditResponse struct {
	ID        string  `json:"id"`
	Action    string  `json:"action"`
	Actor     string  `json:"actor"`
	Details   *string `json:"details"`
	CreatedAt string  `json:"created_at"`
}

func mapToResponse(a SalaryAdvance) AdvanceResponse {
	resp := AdvanceResponse{
		ID:              a.ID.String(),
		CompanyID:       a.CompanyID.String(),
		EmployeeID:      a.EmployeeID.String(),
		ReferenceNo:     a.ReferenceNo,
		RequestedAmount: a.RequestedAmount.StringFixed(2),
		Installments:    a.Installments,
		Currency:        a.Currency,
		Reason:          a.Reason,
		Status:          a.Status,
		ApprovedBy:      a.ApprovedBy,
		RejectedBy:      a.RejectedBy,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt.Format(time.RFC3339),
	}
	if a.ApprovedAmount != nil {
		v := a.ApprovedAmount.StringFixed(2)
		resp.ApprovedAmount = &v
	}
	if a.InstallmentAmount != nil {
		v := a.InstallmentAmount.StringFixed(2)
		resp.InstallmentAmount = &v
	}
	if a.ScheduledRepaymentStart != nil {
		v := a.ScheduledRepaymentStart.Format("2006-01-02")
		resp.ScheduledRepaymentStart = &v
	}
	if a.ApprovedAt != nil {
		v := a.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &v
	}
	if a.PaidOffAt != nil {
		v := a.PaidOffAt.Format(time.RFC3339)
		resp.PaidOffAt = &v
	}
	return resp
}

func mapToListResponse(advances []SalaryAdvance) []AdvanceResponse {
	resp := make([]AdvanceResponse, len(advances))
	for i, a := range advances {
		resp[i] = mapToResponse(a)
	}
	return resp
}

func mapScheduleToResponse(row RepaymentSchedule) ScheduleResponse {
	resp := ScheduleResponse{
		ID:               row.ID.String(),
		SalaryAdvanceID:  row.SalaryAdvanceID.String(),
		InstallmentNo:    row.InstallmentNo,
		DueDate:          row.DueDate.Format("2006-01-02"),
		DueAmount:        row.DueAmount.StringFixed(2),
		Status:           row.Status,
		PaymentReference: row.PaymentReference,
	}
	if row.PaidAmount != nil {
		v := row.PaidAmount.StringFixed(2)
		resp.PaidAmount = &v
	}
	if row.PaidAt != nil {
		v := row.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &v
	}
	return resp
}

func mapScheduleToListResponse(rows []RepaymentSchedule) []ScheduleResponse {
	resp := make([]ScheduleResponse, len(rows))
	for i, row := range rows {
		resp[i] = mapScheduleToResponse(row)
	}
	return resp
}

func mapAuditToListResponse(entries []SalaryAdvanceAudit) []AuditResponse {
	resp := make([]AuditResponse, len(entries))
	for i, e := range entries {
		r := AuditResponse{
			ID:        e.ID.String(),
			Action:    e.Action,
			Actor:     e.Actor,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
		if len(e.Details) > 0 {
			v := string(e.Details)
			r.Details = &v
		}
		resp[i] = r
	}
	return resp
}
