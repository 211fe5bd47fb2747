package storage

import (
	"context"

	"github.com/Togather-Foundation/contests/internal/domain/contests"
)

// Store is the persistence backend the server and jobs run against.
type Store interface {
	Contests() contests.Repository

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
