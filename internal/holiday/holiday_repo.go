package holiday

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=holiday_repo.go -destination=mock/holiday_repo_mock.go -package=mock
type Repository interface {
	FindBetweenDates(ctx context.Context, startDate, endDate time.Time, companyID *uuid.UUID) ([]Holiday, error)
	FindByType(ctx context.Context, holidayType string) ([]Holiday, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// FindBetweenDates returns active holidays in [startDate, endDate]: the
// union of global holidays (company_id IS NULL) and the company's own.
func (r *repository) FindBetweenDates(ctx context.Context, startDate, endDate time.Time, companyID *uuid.UUID) ([]Holiday, error) {
	var holidays []Holiday
	db := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("date BETWEEN ? AND ?", startDate, endDate)

	if companyID != nil {
		db = db.Where("company_id IS NULL OR company_id = ?", *companyID)
	} else {
		db = db.Where("company_id IS NULL")
	}

	err := db.Order("date ASC").Find(&holidays).Error
	return holidays, err
}

func (r *repository) FindByType(ctx context.Context, holidayType string) ([]Holiday, error) {
	var holidays []Holiday
	err := r.db.WithContext(ctx).
		Where("type = ?", holidayType).
		Where("is_active = ?", true).
		Order("date ASC").
		Find(&holidays).Error
	return holidays, err
}
