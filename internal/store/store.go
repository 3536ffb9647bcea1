package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides database operations
type Store struct {
	pool *pgxpool.Pool

	States  *StateStore
	Prices  *PriceStore
	Budgets *BudgetStore
}

// New creates a new Store with all sub-stores initialized
func New(pool *pgxpool.Pool) *Store {
	s := &Store{
		pool: pool,
	}

	s.States = &StateStore{pool: pool}
	s.Prices = &PriceStore{pool: pool}
	s.Budgets = &BudgetStore{pool: pool}

	return s
}

// NewStore creates a new Store from a database URL
func NewStore(databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, err
	}
	return New(pool), nil
}

// Close closes the database connection pool
func (s *Store) Close() {
	s.pool.Close()
}

// Ping verifies the database connection is alive
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Stats returns database pool statistics
func (s *Store) Stats() *pgxpool.Stat {
	return s.pool.Stat()
}
