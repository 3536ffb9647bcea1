package accounting

// Engine computes report trees from immutable snapshots. It holds no state
// and is safe for concurrent use; every invocation is self-contained given
// its snapshot.
type Engine struct{}

// NewEngine creates a new accounting engine
func NewEngine() *Engine {
	return &Engine{}
}

// Consumption computes the resource-hour tree for the snapshot over the
// query window.
func (e *Engine) Consumption(snap Snapshot, window Window) (*ConsumptionNode, error) {
	return BuildConsumptionTree(snap, window)
}

// Cost computes the monetary cost tree for the snapshot over the query
// window, with per-flavor breakdowns at every level.
func (e *Engine) Cost(snap Snapshot, window Window) (*CostNode, error) {
	return BuildCostTree(snap, window, true)
}

// Budget computes the cost tree for one calendar year and annotates project
// and user nodes with budget amounts and over-budget flags. When detail is
// false, flavor breakdowns are skipped at project and global levels; totals
// and flags are unaffected.
func (e *Engine) Budget(snap Snapshot, year int, detail bool) (*CostNode, error) {
	root, err := BuildCostTree(snap, YearWindow(year), detail)
	if err != nil {
		return nil, err
	}

	AnnotateBudgets(root, snap.Budgets)
	return root, nil
}
