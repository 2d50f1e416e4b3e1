package scheduling

import (
	"context"
	"fmt"

	"github.com/RezaEskandarii/gohire/custom_errors"
	"github.com/RezaEskandarii/gohire/internal/store"
	"github.com/RezaEskandarii/gohire/types"
)

// EmployerAccess decides which employers a caller may schedule for.
type EmployerAccess struct {
	recruitment store.RecruitmentStore
}

func NewEmployerAccess(recruitment store.RecruitmentStore) *EmployerAccess {
	return &EmployerAccess{recruitment: recruitment}
}

// Authorize returns the employer when it exists and belongs to owner.
// An empty owner is unscoped and only needs the employer to exist.
// A missing employer and one owned by someone else both yield a NotFoundError.
func (a *EmployerAccess) Authorize(ctx context.Context, owner string, employerID int64) (*types.Employer, error) {
	e, err := a.recruitment.FindEmployer(ctx, employerID)
	if err != nil {
		return nil, fmt.Errorf("load employer %d: %w", employerID, err)
	}
	if e == nil || (owner != "" && e.Owner != owner) {
		return nil, custom_errors.NewNotFoundError("employer", employerID)
	}
	return e, nil
}
