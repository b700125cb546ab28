package holiday

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypePublic   = "PUBLIC"
	TypeCompany  = "COMPANY"
	TypeOptional = "OPTIONAL"
)

type Holiday struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name string    `gorm:"type:varchar(100);not null"`
	Date time.Time `gorm:"type:date;not null;index:idx_holidays_date"`
	Type string    `gorm:"type:varchar(20);not null;default:'PUBLIC'"`

	// Nil for global/public holidays
	CompanyID   *uuid.UUID `gorm:"type:uuid;index:idx_holidays_company"`
	Country     *string    `gorm:"type:varchar(2)"`
	Description *string    `gorm:"type:text"`
	IsRecurring bool       `gorm:"not null;default:false"`
	IsActive    bool       `gorm:"not null;default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}
