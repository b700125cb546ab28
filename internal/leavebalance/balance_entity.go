package leavebalance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LeaveBalance is one ledger record, unique per
// (employee, leave type, year).
type LeaveBalance struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_key"`
	LeaveTypeID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_balances_key"`
	Year        int       `gorm:"type:int;not null;uniqueIndex:uq_leave_balances_key"`

	TotalAllocated decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	Used           decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	Pending        decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	Available      decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`
	CarriedForward decimal.Decimal `gorm:"type:numeric(6,2);not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// recalcAvailable maintains the ledger invariant
// available = totalAllocated - used - pending.
func (b *LeaveBalance) recalcAvailable() {
	b.Available = b.TotalAllocated.Sub(b.Used).Sub(b.Pending)
}
