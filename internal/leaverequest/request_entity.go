package leaverequest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"

	// StatusModificationRequested is part of the persisted enum; no
	// workflow transition produces it, but rows carrying it are read
	// and treated as non-pending.
	StatusModificationRequested = "MODIFICATION_REQUESTED"
)

type LeaveRequest struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_company_status"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null"`

	StartDate    time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate      time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	StartDayType string          `gorm:"type:varchar(15);not null;default:'FULL_DAY'"`
	EndDayType   string          `gorm:"type:varchar(15);not null;default:'FULL_DAY'"`
	TotalDays    decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`

	Reason      string  `gorm:"type:text;not null"`
	DocumentURL *string `gorm:"type:text"`

	Status             string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_company_status"`
	ApproverID         *uuid.UUID `gorm:"type:uuid"`
	ApproverName       *string    `gorm:"type:varchar(150)"`
	RejectionReason    *string    `gorm:"type:text"`
	CancellationReason *string    `gorm:"type:text"`

	CreatedAt  time.Time
	UpdatedAt  time.Time
	ApprovedAt *time.Time
}
