package telemetry

import (
	"context"
	"time"
)

// Source abstracts the remote readings table (hosted REST surface or a
// direct Postgres connection).
type Source interface {
	Name() string
	// Fetch returns readings with a timestamp at or after since, newest first.
	// A zero since fetches the full history.
	Fetch(ctx context.Context, since time.Time) ([]Reading, error)
}

// Store is the contract the in-memory snapshot store must satisfy.
type Store interface {
	Replace(readings []Reading)
	All() []Reading
	Since(t time.Time) []Reading
}
