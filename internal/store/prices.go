package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"cloudbill/pkg/types"
)

// PriceStore handles price history operations
type PriceStore struct {
	pool *pgxpool.Pool
}

// ListAll returns the full price history ordered by flavor, user class, and
// start time. Reports always fetch the whole history once; regime selection
// happens in memory.
func (s *PriceStore) ListAll(ctx context.Context) ([]types.PriceRecord, error) {
	query := `
		SELECT id, flavor_id, user_class, unit_price, start_time
		FROM prices
		ORDER BY flavor_id, user_class, start_time
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()

	records := []types.PriceRecord{}
	for rows.Next() {
		var rec types.PriceRecord
		err := rows.Scan(
			&rec.ID,
			&rec.FlavorID,
			&rec.UserClass,
			&rec.UnitPrice,
			&rec.StartTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price records: %w", err)
	}

	return records, nil
}

// ListForFlavor returns the price history of one flavor across all user
// classes, newest regime last.
func (s *PriceStore) ListForFlavor(ctx context.Context, flavorID string) ([]types.PriceRecord, error) {
	query := `
		SELECT id, flavor_id, user_class, unit_price, start_time
		FROM prices
		WHERE flavor_id = $1
		ORDER BY user_class, start_time
	`

	rows, err := s.pool.Query(ctx, query, flavorID)
	if err != nil {
		return nil, fmt.Errorf("list prices for flavor: %w", err)
	}
	defer rows.Close()

	records := []types.PriceRecord{}
	for rows.Next() {
		var rec types.PriceRecord
		err := rows.Scan(
			&rec.ID,
			&rec.FlavorID,
			&rec.UserClass,
			&rec.UnitPrice,
			&rec.StartTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan price record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate price records: %w", err)
	}

	return records, nil
}

// Create inserts a new price regime. Regime start times are unique per
// (flavor, user class); a duplicate start time maps to ErrConflict.
func (s *PriceStore) Create(ctx context.Context, rec *types.PriceRecord) error {
	query := `
		INSERT INTO prices (id, flavor_id, user_class, unit_price, start_time)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (flavor_id, user_class, start_time) DO NOTHING
	`

	tag, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.FlavorID,
		rec.UserClass,
		rec.UnitPrice,
		rec.StartTime,
	)
	if err != nil {
		return fmt.Errorf("insert price record: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	return nil
}
