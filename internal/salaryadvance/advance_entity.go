package salaryadvance

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	StatusRequested = "REQUESTED"
	StatusApproved  = "APPROVED"
	StatusActive    = "ACTIVE"
	StatusPaidOff   = "PAID_OFF"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

const (
	ScheduleStatusPending = "PENDING"
	ScheduleStatusPartial = "PARTIAL"
	ScheduleStatusPaid    = "PAID"
)

type SalaryAdvance struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_salary_advances_company"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_salary_advances_employee"`

	// Human-facing document number, empty when no counter is wired.
	ReferenceNo string `gorm:"type:varchar(30)"`

	RequestedAmount   decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	ApprovedAmount    *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Installments      int              `gorm:"type:int;not null;default:1"`
	InstallmentAmount *decimal.Decimal `gorm:"type:numeric(12,2)"`
	Currency          string           `gorm:"type:varchar(3);not null;default:'IDR'"`
	Reason            string           `gorm:"type:text"`

	Status                  string     `gorm:"type:varchar(20);not null;default:'REQUESTED';index:idx_salary_advances_status"`
	ScheduledRepaymentStart *time.Time `gorm:"type:date"`

	ApprovedBy  *string    `gorm:"type:varchar(150)"`
	ApprovedAt  *time.Time
	RejectedBy  *string    `gorm:"type:varchar(150)"`
	RejectedAt  *time.Time
	RejectionReason *string `gorm:"type:text"`
	ActivatedBy *string    `gorm:"type:varchar(150)"`
	ActivatedAt *time.Time
	CancelledBy *string    `gorm:"type:varchar(150)"`
	CancelledAt *time.Time
	PaidOffAt   *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type RepaymentSchedule struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SalaryAdvanceID  uuid.UUID `gorm:"type:uuid;not null;index:idx_repayment_schedules_advance"`
	InstallmentNo    int       `gorm:"type:int;not null"`
	DueDate          time.Time `gorm:"type:date;not null"`

	DueAmount  decimal.Decimal  `gorm:"type:numeric(12,2);not null"`
	PaidAmount *decimal.Decimal `gorm:"type:numeric(12,2)"`

	Status           string     `gorm:"type:varchar(10);not null;default:'PENDING'"`
	PaidAt           *time.Time
	PaymentReference *string `gorm:"type:varchar(100)"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SalaryAdvanceAudit rows are append-only; nothing updates or deletes
// them after creation.
type SalaryAdvanceAudit struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SalaryAdvanceID uuid.UUID       `gorm:"type:uuid;not null;index:idx_salary_advance_audits_advance"`
	Action          string          `gorm:"type:varchar(40);not null"`
	Actor           string          `gorm:"type:varchar(150);not null"`
	Details         json.RawMessage `gorm:"type:jsonb"`
	CreatedAt       time.Time
}
