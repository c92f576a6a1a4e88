package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Counters    *CounterRepository
	Tasks       *TaskRepository
	Preferences *PreferencesRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Counters:    NewCounterRepository(pool),
		Tasks:       NewTaskRepository(pool),
		Preferences: NewPreferencesRepository(pool),
	}
}
