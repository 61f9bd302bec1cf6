package store

import (
	"context"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// Store aggregates the repositories of one backend.
type Store struct {
	db pinger

	Users     UserRepository
	CallLogs  CallLogRepository
	Templates TemplateRepository
}

// NewMemory returns a process-lifetime store backed by in-memory maps.
func NewMemory() *Store {
	return &Store{
		Users:     newMemoryUserRepo(),
		CallLogs:  newMemoryCallLogRepo(),
		Templates: newMemoryTemplateRepo(),
	}
}

// NewPostgres wires the PostgreSQL repositories around a shared pool.
func NewPostgres(pool Pool) *Store {
	return &Store{
		db:        pool,
		Users:     &pgUserRepo{pool: pool},
		CallLogs:  &pgCallLogRepo{pool: pool},
		Templates: &pgTemplateRepo{pool: pool},
	}
}

// HealthCheck verifies that the backing database is reachable. The memory
// backend is always healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	defer observeStore(ctx, "db.healthcheck")()
	return s.db.Ping(ctx)
}
