package leavetype

import (
	"context"

	"gorm.io/gorm"
)

//go:generate mockgen -source=leavetype_repo.go -destination=mock/leavetype_repo_mock.go -package=mock
type Repository interface {
	FindByID(ctx context.Context, id string) (*LeaveType, error)
	FindActive(ctx context.Context) ([]LeaveType, error)
	FindActiveByFrequency(ctx context.Context, frequency string) ([]LeaveType, error)
	FindCarryForwardExpiring(ctx context.Context) ([]LeaveType, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveType, error) {
	var lt LeaveType
	err := r.db.WithContext(ctx).First(&lt, "id = ?", id).Error
	return &lt, err
}

func (r *repository) FindActive(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("code ASC").
		Find(&types).Error
	return types, err
}

func (r *repository) FindActiveByFrequency(ctx context.Context, frequency string) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("accrual_frequency = ?", frequency).
		Order("code ASC").
		Find(&types).Error
	return types, err
}

func (r *repository) FindCarryForwardExpiring(ctx context.Context) ([]LeaveType, error) {
	var types []LeaveType
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("allow_carry_forward = ?", true).
		Where("carry_forward_expiry_months IS NOT NULL").
		Find(&types).Error
	return types, err
}
