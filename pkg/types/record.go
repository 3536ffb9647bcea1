package types

import "time"

// StateRecord is one row of instance state history. Each record covers the
// half-open window [Begin, End); a nil End means the instance was still in
// this state when the history was snapshotted.
//
// Rows arrive fully denormalized (flavor, owner, project, and the owner's
// pricing class joined in) so report computation never goes back to the
// database while walking the tree.
type StateRecord struct {
	ID           string     `db:"id"`
	InstanceID   string     `db:"instance_id"`
	InstanceName string     `db:"instance_name"`
	FlavorID     string     `db:"flavor_id"`
	FlavorName   string     `db:"flavor_name"`
	UserID       string     `db:"user_id"`
	Username     string     `db:"username"`
	ProjectID    string     `db:"project_id"`
	ProjectName  string     `db:"project_name"`
	UserClass    int        `db:"user_class"`
	Status       string     `db:"status"`
	Begin        time.Time  `db:"begin_at"`
	End          *time.Time `db:"end_at"`
}

// PriceRecord is one unit-price regime for a (flavor, user class) pair.
// A record is effective from StartTime until superseded by the next record
// with a later StartTime for the same pair.
type PriceRecord struct {
	ID        string    `db:"id"`
	FlavorID  string    `db:"flavor_id"`
	UserClass int       `db:"user_class"`
	UnitPrice float64   `db:"unit_price"`
	StartTime time.Time `db:"start_time"`
}

// BudgetKind distinguishes user and project budgets.
type BudgetKind string

const (
	BudgetKindUser    BudgetKind = "user"
	BudgetKindProject BudgetKind = "project"
)

// BudgetRecord is the yearly spending limit for one user or project.
type BudgetRecord struct {
	ID       string     `db:"id"`
	Kind     BudgetKind `db:"kind"`
	EntityID string     `db:"entity_id"`
	Year     int        `db:"year"`
	Amount   float64    `db:"amount"`
}
