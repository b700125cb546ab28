package employee

import (
	"context"

	"github.com/google/uuid"
)

// DirectoryProvider adapts the employee repository to the enumeration
// the accrual scheduler expects.
type DirectoryProvider struct {
	repo Repository
}

func NewDirectoryProvider(repo Repository) *DirectoryProvider {
	return &DirectoryProvider{repo: repo}
}

func (p *DirectoryProvider) ActiveEmployeeIDs(ctx context.Context) ([]uuid.UUID, error) {
	return p.repo.FindActiveIDs(ctx)
}
