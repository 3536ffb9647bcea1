package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"cloudbill/pkg/types"
)

// StateStore reads instance state history
type StateStore struct {
	pool *pgxpool.Pool
}

// StateFilter restricts a state history query to one scope and time window.
// At most one of ProjectID, UserID, InstanceID is set; all empty means the
// global scope.
type StateFilter struct {
	Begin      time.Time
	End        time.Time
	ProjectID  string
	UserID     string
	InstanceID string
}

// ListForWindow returns all state records whose validity window intersects
// [filter.Begin, filter.End), fully denormalized (flavor, owner, project and
// the owner's pricing class joined in) and ordered by instance and begin
// time. This is the single state fetch a report needs; the engine never goes
// back to the database while building the tree.
func (s *StateStore) ListForWindow(ctx context.Context, filter StateFilter) ([]types.StateRecord, error) {
	query := `
		SELECT st.id, st.instance_id, st.instance_name,
			st.flavor_id, f.name AS flavor_name,
			st.user_id, u.username, u.project_id, p.name AS project_name,
			u.user_class, st.status, st.begin_at, st.end_at
		FROM instance_states st
		JOIN flavors f ON f.id = st.flavor_id
		JOIN users u ON u.id = st.user_id
		JOIN projects p ON p.id = u.project_id
		WHERE st.begin_at < $2
		  AND (st.end_at IS NULL OR st.end_at > $1)
	`

	args := []interface{}{filter.Begin, filter.End}
	argPos := 3

	if filter.ProjectID != "" {
		query += fmt.Sprintf(" AND u.project_id = $%d", argPos)
		args = append(args, filter.ProjectID)
		argPos++
	}

	if filter.UserID != "" {
		query += fmt.Sprintf(" AND st.user_id = $%d", argPos)
		args = append(args, filter.UserID)
		argPos++
	}

	if filter.InstanceID != "" {
		query += fmt.Sprintf(" AND st.instance_id = $%d", argPos)
		args = append(args, filter.InstanceID)
		argPos++
	}

	query += " ORDER BY st.instance_id, st.begin_at"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list state records: %w", err)
	}
	defer rows.Close()

	records := []types.StateRecord{}
	for rows.Next() {
		var rec types.StateRecord
		err := rows.Scan(
			&rec.ID,
			&rec.InstanceID,
			&rec.InstanceName,
			&rec.FlavorID,
			&rec.FlavorName,
			&rec.UserID,
			&rec.Username,
			&rec.ProjectID,
			&rec.ProjectName,
			&rec.UserClass,
			&rec.Status,
			&rec.Begin,
			&rec.End,
		)
		if err != nil {
			return nil, fmt.Errorf("scan state record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state records: %w", err)
	}

	return records, nil
}
