package events

import "time"

const LeaveApprovedTopic = "hr.leave.approved.v1"

type LeaveApprovedEvent struct {
	EventType    string    `json:"event_type"`
	RequestID    string    `json:"request_id"`
	EmployeeID   string    `json:"employee_id"`
	LeaveTypeID  string    `json:"leave_type_id"`
	StartDate    string    `json:"start_date"`
	EndDate      string    `json:"end_date"`
	TotalDays    string    `json:"total_days"`
	ApproverID   string    `json:"approver_id"`
	ApproverName string    `json:"approver_name"`
	OccurredAt   time.Time `json:"occurred_at"`
}
