package leavebalance

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=balance_repo.go -destination=mock/balance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, b *LeaveBalance) error
	// FindByKey takes a row-level lock so concurrent mutations of the
	// same ledger key are linearized by the database.
	FindByKey(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*LeaveBalance, error)
	Update(ctx context.Context, b *LeaveBalance) error
	FindByEmployeeAndYear(ctx context.Context, employeeID uuid.UUID, year int) ([]LeaveBalance, error)
	FindByLeaveTypeAndYear(ctx context.Context, leaveTypeID uuid.UUID, year int) ([]LeaveBalance, error)
	DeleteOlderThan(ctx context.Context, year int) (int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

// conn returns the gorm handle to run statements on. When the repo is
// tx-bound the session executes on the caller's transaction, so locks
// hold until the caller commits and writes roll back with it.
func (r *repository) conn(ctx context.Context) *gorm.DB {
	if r.tx == nil {
		return r.db.WithContext(ctx)
	}
	db := r.db.Session(&gorm.Session{Context: ctx, NewDB: true, SkipDefaultTransaction: true})
	db.Statement.ConnPool = r.tx
	return db
}

func (r *repository) Create(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).Create(b).Error
}

func (r *repository) FindByKey(ctx context.Context, employeeID, leaveTypeID uuid.UUID, year int) (*LeaveBalance, error) {
	var b LeaveBalance
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ?", employeeID).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		First(&b).Error
	return &b, err
}

func (r *repository) Update(ctx context.Context, b *LeaveBalance) error {
	return r.conn(ctx).Save(b).Error
}

func (r *repository) FindByEmployeeAndYear(ctx context.Context, employeeID uuid.UUID, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Where("year = ?", year).
		Find(&balances).Error
	return balances, err
}

func (r *repository) FindByLeaveTypeAndYear(ctx context.Context, leaveTypeID uuid.UUID, year int) ([]LeaveBalance, error) {
	var balances []LeaveBalance
	err := r.conn(ctx).
		Where("leave_type_id = ?", leaveTypeID).
		Where("year = ?", year).
		Find(&balances).Error
	return balances, err
}

func (r *repository) DeleteOlderThan(ctx context.Context, year int) (int64, error) {
	res := r.conn(ctx).
		Where("year < ?", year).
		Delete(&LeaveBalance{})
	return res.RowsAffected, res.Error
}
