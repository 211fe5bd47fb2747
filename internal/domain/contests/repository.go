package contests

import (
	"context"
	"time"
)

// Filter narrows List results.
type Filter struct {
	Platforms []Platform
	Status    Status
	Limit     int
}

// Repository is the persistence port shared by the aggregation pipeline,
// the lifecycle job, and the query service.
type Repository interface {
	// FindByKey returns the contest stored under (name, platform), or ErrNotFound.
	FindByKey(ctx context.Context, key Key) (*Contest, error)

	// Upsert inserts c, or replaces every field of the row with the same key
	// except its id, creation time, and solution link.
	Upsert(ctx context.Context, c Contest) (UpsertResult, error)

	// ListByStatusNot returns every contest whose status differs from status.
	ListByStatusNot(ctx context.Context, status Status) ([]Contest, error)

	// UpdateStatus writes only the status column of one contest.
	UpdateStatus(ctx context.Context, id string, status Status) error

	List(ctx context.Context, filter Filter) ([]Contest, error)
	GetByID(ctx context.Context, id string) (*Contest, error)

	// SetSolutionLink writes only the solution link column of one contest.
	SetSolutionLink(ctx context.Context, id string, link string) (*Contest, error)
}

// UpsertResult reports what an Upsert did.
type UpsertResult struct {
	ID        string
	Created   bool
	UpdatedAt time.Time
}
