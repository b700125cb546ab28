package employee

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusTerminated = "terminated"
)

// Employee is the slice of the directory this service reads: enough to
// enumerate active employees and resolve names. The directory itself
// is owned by a separate service and fed in through employee lifecycle
// events.
type Employee struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID        uuid.UUID `gorm:"type:uuid;index"`
	FullName         string
	Email            string `gorm:"uniqueIndex"`
	EmploymentStatus string `gorm:"type:varchar(20);not null;default:'active'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
