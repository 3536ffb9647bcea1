package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"cloudbill/pkg/types"
)

// BudgetStore handles budget operations
type BudgetStore struct {
	pool *pgxpool.Pool
}

// ListForYear returns every budget record for one year, optionally narrowed
// to a single entity.
func (s *BudgetStore) ListForYear(ctx context.Context, year int, entityID string) ([]types.BudgetRecord, error) {
	query := `
		SELECT id, kind, entity_id, year, amount
		FROM budgets
		WHERE year = $1
	`

	args := []interface{}{year}
	if entityID != "" {
		query += " AND entity_id = $2"
		args = append(args, entityID)
	}

	query += " ORDER BY kind, entity_id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	records := []types.BudgetRecord{}
	for rows.Next() {
		var rec types.BudgetRecord
		err := rows.Scan(
			&rec.ID,
			&rec.Kind,
			&rec.EntityID,
			&rec.Year,
			&rec.Amount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan budget record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budget records: %w", err)
	}

	return records, nil
}

// Upsert inserts or replaces the budget for one (kind, entity, year). On
// update the existing record keeps its ID, which is written back into rec.
func (s *BudgetStore) Upsert(ctx context.Context, rec *types.BudgetRecord) error {
	query := `
		INSERT INTO budgets (id, kind, entity_id, year, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (kind, entity_id, year) DO UPDATE
		SET amount = EXCLUDED.amount
		RETURNING id
	`

	err := s.pool.QueryRow(ctx, query,
		rec.ID,
		rec.Kind,
		rec.EntityID,
		rec.Year,
		rec.Amount,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("upsert budget record: %w", err)
	}

	return nil
}
