package accrual

import (
	"context"

	"github.com/google/uuid"
)

// ActiveEmployeeProvider enumerates the employees accrual jobs run
// for. The scheduler never infers the population from existing balance
// rows; the directory is the single source of truth.
//
//go:generate mockgen -source=provider.go -destination=mock/provider_mock.go -package=mock
type ActiveEmployeeProvider interface {
	ActiveEmployeeIDs(ctx context.Context) ([]uuid.UUID, error)
}
