package leavebalance

import "time"

type AllocateBalanceRequest struct {
	EmployeeID     string  `json:"employee_id" binding:"required,uuid"`
	LeaveTypeID    string  `json:"leave_type_id" binding:"required,uuid"`
	Year           int     `json:"year" binding:"required,min=2000"`
	TotalAllocated string  `json:"total_allocated" binding:"required"`
	CarriedForward *string `json:"carried_forward"`
}

type AdjustBalanceRequest struct {
	EmployeeID  string `json:"employee_id" binding:"required,uuid"`
	LeaveTypeID string `json:"leave_type_id" binding:"required,uuid"`
	Year        int    `json:"year" binding:"required,min=2000"`
	Adjustment  string `json:"adjustment" binding:"required"`
}

type BalanceResponse struct {
	ID             string `json:"id"`
	EmployeeID     string `json:"employee_id"`
	LeaveTypeID    string `json:"leave_type_id"`
	Year           int    `json:"year"`
	TotalAllocated string `json:"total_allocated"`
	Used           string `json:"used"`
	Pending        string `json:"pending"`
	Available      string `json:"available"`
	CarriedForward string `json:"carried_forward"`
	UpdatedAt      string `json:"updated_at"`
}

func mapToResponse(b LeaveBalance) BalanceResponse {
	return BalanceResponse{
		ID:             b.ID.String(),
		EmployeeID:     b.EmployeeID.String(),
		LeaveTypeID:    b.LeaveTypeID.String(),
		Year:           b.Year,
		TotalAllocated: b.TotalAllocated.StringFixed(2),
		Used:           b.Used.StringFixed(2),
		Pending:        b.Pending.StringFixed(2),
		Available:      b.Available.StringFixed(2),
		CarriedForward: b.CarriedForward.StringFixed(2),
		UpdatedAt:      b.UpdatedAt.Format(time.RFC3339),
	}
}

func mapToListResponse(balances []LeaveBalance) []BalanceResponse {
	resp := make([]BalanceResponse, len(balances))
	for i, b := range balances {
		resp[i] = mapToResponse(b)
	}
	return resp
}
