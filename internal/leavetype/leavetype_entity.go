package leavetype

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AccrualMonthly = "MONTHLY"
	AccrualYearly  = "YEARLY"
)

const (
	CategoryAnnual    = "ANNUAL"
	CategorySick      = "SICK"
	CategoryMaternity = "MATERNITY"
	CategoryPaternity = "PATERNITY"
	CategoryUnpaid    = "UNPAID"
	CategorySpecial   = "SPECIAL"
)

type LeaveType struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Code        string    `gorm:"type:varchar(20);not null;uniqueIndex:uq_leave_types_company_code"`
	Category    string    `gorm:"type:varchar(20);not null;default:'ANNUAL'"`
	Description *string   `gorm:"type:text"`
	CompanyID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_types_company_code"`

	DefaultDaysPerYear decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	MaxConsecutiveDays *int            `gorm:"type:int"`
	RequiresDocument   bool            `gorm:"not null;default:false"`
	MinNoticeDays      int             `gorm:"type:int;not null;default:0"`
	IsPaid             bool            `gorm:"not null;default:true"`
	IsActive           bool            `gorm:"not null;default:true"`

	AccrualFrequency         string `gorm:"type:varchar(10);not null;default:'YEARLY'"`
	AllowCarryForward        bool   `gorm:"not null;default:false"`
	MaxCarryForwardDays      *int   `gorm:"type:int"`
	CarryForwardExpiryMonths *int   `gorm:"type:int"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
