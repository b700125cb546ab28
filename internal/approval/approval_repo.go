package approval

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:generate mockgen -source=approval_repo.go -destination=mock/approval_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	CreateBatch(ctx context.Context, steps []ApprovalWorkflow) error
	// FindByID takes a row-level lock so concurrent actions on the same
	// step are linearized by the database.
	FindByID(ctx context.Context, id uuid.UUID) (*ApprovalWorkflow, error)
	// FindByRequest locks and returns all steps of one leave request in
	// sequence order, guarding finalization against concurrent
	// last-step approvals.
	FindByRequest(ctx context.Context, leaveRequestID uuid.UUID) ([]ApprovalWorkflow, error)
	Update(ctx context.Context, step *ApprovalWorkflow) error
	FindPendingByApprover(ctx context.Context, approverID uuid.UUID) ([]ApprovalWorkflow, error)
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

func (r *repository) CreateBatch(ctx context.Context, steps []ApprovalWorkflow) error {
	return r.conn(ctx).Create(&steps).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*ApprovalWorkflow, error) {
	var step ApprovalWorkflow
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&step).Error
	return &step, err
}

func (r *repository) FindByRequest(ctx context.Context, leaveRequestID uuid.UUID) ([]ApprovalWorkflow, error) {
	var steps []ApprovalWorkflow
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("leave_request_id = ?", leaveRequestID).
		Order("sequence_order ASC").
		Find(&steps).Error
	return steps, err
}

func (r *repository) Update(ctx context.Context, step *ApprovalWorkflow) error {
	return r.conn(ctx).Save(step).Error
}

func (r *repository) FindPendingByApprover(ctx context.Context, approverID uuid.UUID) ([]ApprovalWorkflow, error) {
	var steps []ApprovalWorkflow
	err := r.conn(ctx).
		Where("approver_id = ?", approverID).
		Where("status = ?", StatusPending).
		Order("created_at ASC").
		Find(&steps).Error
	return steps, err
}
