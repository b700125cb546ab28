package salaryadvance

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=advance_repo.go -destination=mock/advance_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, a *SalaryAdvance) error
	// FindByID takes a row-level lock so lifecycle transitions and
	// payment-driven pay-off checks on the same advance are linearized.
	FindByID(ctx context.Context, id uuid.UUID) (*SalaryAdvance, error)
	Update(ctx context.Context, a *SalaryAdvance) error
	FindByEmployee(ctx context.Context, employeeID uuid.UUID) ([]SalaryAdvance, error)
	// HasOpenAdvance reports whether the employee has an advance that
	// is not yet in a terminal state.
	HasOpenAdvance(ctx context.Context, employeeID uuid.UUID) (bool, error)

	CreateScheduleBatch(ctx context.Context, rows []RepaymentSchedule) error
	FindScheduleByID(ctx context.Context, id uuid.UUID) (*RepaymentSchedule, error)
	UpdateSchedule(ctx context.Context, row *RepaymentSchedule) error
	FindScheduleByAdvance(ctx context.Context, advanceID uuid.UUID) ([]RepaymentSchedule, error)
	// FindOverdueSchedules returns unpaid rows whose due date is
	// strictly before asOf.
	FindOverdueSchedules(ctx context.Context, asOf time.Time) ([]RepaymentSchedule, error)

	CreateAudit(ctx context.Context, entry *SalaryAdvanceAudit) error
	FindAuditByAdvance(ctx context.Context, advanceID uuid.UUID) ([]SalaryAdvanceAudit, error)
	FindAuditByActor(ctx context.Context, actor string) ([]SalaryAdvanceAudit, error)
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

func (r *repository) Create(ctx context.Context, a *SalaryAdvance) error {
	return r.conn(ctx).Create(a).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*SalaryAdvance, error) {
	var a SalaryAdvance
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&a).Error
	return &a, err
}

func (r *repository) Update(ctx context.Context, a *SalaryAdvance) error {
	return r.conn(ctx).Save(a).Error
}

func (r *repository) FindByEmployee(ctx context.Context, employeeID uuid.UUID) ([]SalaryAdvance, error) {
	var advances []SalaryAdvance
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&advances).Error
	return advances, err
}

func (r *repository) HasOpenAdvance(ctx context.Context, employeeID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(ctx).
		Model(&SalaryAdvance{}).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", []string{StatusRequested, StatusApproved, StatusActive}).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) CreateScheduleBatch(ctx context.Context, rows []RepaymentSchedule) error {
	return r.conn(ctx).Create(&rows).Error
}

func (r *repository) FindScheduleByID(ctx context.Context, id uuid.UUID) (*RepaymentSchedule, error) {
	var row RepaymentSchedule
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&row).Error
	return &row, err
}

func (r *repository) UpdateSchedule(ctx context.Context, row *RepaymentSchedule) error {
	return r.conn(ctx).Save(row).Error
}

func (r *repository) FindScheduleByAdvance(ctx context.Context, advanceID uuid.UUID) ([]RepaymentSchedule, error) {
	var rows []RepaymentSchedule
	err := r.conn(ctx).
		Where("salary_advance_id = ?", advanceID).
		Order("installment_no ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) FindOverdueSchedules(ctx context.Context, asOf time.Time) ([]RepaymentSchedule, error) {
	var rows []RepaymentSchedule
	err := r.conn(ctx).
		Where("status <> ?", ScheduleStatusPaid).
		Where("due_date < ?", asOf).
		Order("due_date ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) CreateAudit(ctx context.Context, entry *SalaryAdvanceAudit) error {
	return r.conn(ctx).Create(entry).Error
}

func (r *repository) FindAuditByAdvance(ctx context.Context, advanceID uuid.UUID) ([]SalaryAdvanceAudit, error) {
	var entries []SalaryAdvanceAudit
	err := r.conn(ctx).
		Where("salary_advance_id = ?", advanceID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) FindAuditByActor(ctx context.Context, actor string) ([]SalaryAdvanceAudit, error) {
	var entries []SalaryAdvanceAudit
	err := r.conn(ctx).
		Where("actor = ?", actor).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
