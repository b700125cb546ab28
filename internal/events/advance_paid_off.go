package events

import "time"

const AdvancePaidOffTopic = "hr.advance.paidoff.v1"

type AdvancePaidOffEvent struct {
	EventType      string    `json:"event_type"`
	AdvanceID      string    `json:"advance_id"`
	EmployeeID     string    `json:"employee_id"`
	ApprovedAmount string    `json:"approved_amount"`
	OccurredAt     time.Time `json:"occurred_at"`
}
