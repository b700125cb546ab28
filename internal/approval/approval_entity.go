package approval

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

const (
	LevelOne   = "LEVEL_1"
	LevelTwo   = "LEVEL_2"
	LevelThree = "LEVEL_3"
	LevelFour  = "LEVEL_4"
)

// ApprovalWorkflow is one step of the ordered approval chain attached
// to a leave request. Steps clear in sequence order; a step is
// actionable only once every lower-sequence step is approved.
type ApprovalWorkflow struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	LeaveRequestID uuid.UUID `gorm:"type:uuid;not null;index:idx_approval_workflows_request"`

	Level         string    `gorm:"type:varchar(10);not null"`
	ApproverID    uuid.UUID `gorm:"type:uuid;not null;index:idx_approval_workflows_approver"`
	ApproverName  string    `gorm:"type:varchar(150);not null"`
	SequenceOrder int       `gorm:"type:int;not null"`
	IsRequired    bool      `gorm:"not null;default:true"`

	Status     string     `gorm:"type:varchar(20);not null;default:'PENDING'"`
	Comments   *string    `gorm:"type:text"`
	ActionedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
