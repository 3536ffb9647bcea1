package accounting

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	"cloudbill/pkg/types"
)

// Snapshot is the immutable input set for one report: every row the engine
// needs, fetched up front so tree construction never touches the database.
type Snapshot struct {
	States  []types.StateRecord
	Prices  []types.PriceRecord
	Budgets []types.BudgetRecord
}

// leafKey identifies one (project, user, instance) leaf of the tree. An
// instance that changed owners inside the window contributes one leaf per
// owner, each covering only the intervals owned by that user.
type leafKey struct {
	ProjectID    string
	ProjectName  string
	UserID       string
	Username     string
	InstanceID   string
	InstanceName string
}

type leafGroup struct {
	Key       leafKey
	Intervals []Interval
}

// resolveLeaves resolves every instance's state history into clipped
// intervals, partitions them into (project, user, instance) leaves, and
// returns the leaves in ascending key order. The order is the canonical fold
// order for aggregation: it is what makes the final sums independent of how
// leaf computations are scheduled.
func resolveLeaves(states []types.StateRecord, window Window) ([]leafGroup, error) {
	byInstance := make(map[string][]types.StateRecord)
	for _, rec := range states {
		byInstance[rec.InstanceID] = append(byInstance[rec.InstanceID], rec)
	}

	groups := make(map[leafKey][]Interval)
	instanceIDs := lo.Keys(byInstance)
	sort.Strings(instanceIDs)

	for _, id := range instanceIDs {
		intervals, err := ResolveIntervals(byInstance[id], window)
		if err != nil {
			return nil, err
		}
		for _, iv := range intervals {
			key := leafKey{
				ProjectID:    iv.ProjectID,
				ProjectName:  iv.ProjectName,
				UserID:       iv.UserID,
				Username:     iv.Username,
				InstanceID:   iv.InstanceID,
				InstanceName: iv.InstanceName,
			}
			groups[key] = append(groups[key], iv)
		}
	}

	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.ProjectName != b.ProjectName {
			return a.ProjectName < b.ProjectName
		}
		if a.Username != b.Username {
			return a.Username < b.Username
		}
		if a.InstanceName != b.InstanceName {
			return a.InstanceName < b.InstanceName
		}
		return a.InstanceID < b.InstanceID
	})

	leaves := make([]leafGroup, len(keys))
	for i, key := range keys {
		leaves[i] = leafGroup{Key: key, Intervals: groups[key]}
	}

	return leaves, nil
}

// Merge combines two cost nodes for the same entity: totals add, flavor maps
// union with per-key sums, and child maps union with a recursive merge, never
// an overwrite. Merge is commutative and, within floating-point tolerance,
// associative, so children may be computed in any order or in parallel as
// long as the final fold order is fixed.
func Merge(a, b *CostNode) *CostNode {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	out := &CostNode{
		Level: a.Level,
		ID:    firstNonEmpty(a.ID, b.ID),
		Name:  firstNonEmpty(a.Name, b.Name),
		Total: a.Total + b.Total,
	}

	if a.Flavors != nil || b.Flavors != nil {
		out.Flavors = make(map[string]float64, len(a.Flavors)+len(b.Flavors))
		for k, v := range a.Flavors {
			out.Flavors[k] += v
		}
		for k, v := range b.Flavors {
			out.Flavors[k] += v
		}
	}

	if a.Children != nil || b.Children != nil {
		out.Children = make(map[string]*CostNode, len(a.Children)+len(b.Children))
		for k, v := range a.Children {
			out.Children[k] = v
		}
		for k, v := range b.Children {
			out.Children[k] = Merge(out.Children[k], v)
		}
	}

	return out
}

// MergeConsumption is Merge for consumption nodes.
func MergeConsumption(a, b *ConsumptionNode) *ConsumptionNode {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}

	out := &ConsumptionNode{
		Level: a.Level,
		ID:    firstNonEmpty(a.ID, b.ID),
		Name:  firstNonEmpty(a.Name, b.Name),
	}

	out.Resources = make(map[string]float64, len(a.Resources)+len(b.Resources))
	for k, v := range a.Resources {
		out.Resources[k] += v
	}
	for k, v := range b.Resources {
		out.Resources[k] += v
	}

	if a.Children != nil || b.Children != nil {
		out.Children = make(map[string]*ConsumptionNode, len(a.Children)+len(b.Children))
		for k, v := range a.Children {
			out.Children[k] = v
		}
		for k, v := range b.Children {
			out.Children[k] = MergeConsumption(out.Children[k], v)
		}
	}

	return out
}

// BuildCostTree computes the full cost tree for a snapshot. Leaf nodes are
// computed concurrently, then folded into the root in canonical leaf order
// via Merge of single-leaf spines. detail controls whether flavor breakdowns
// are kept at project and global levels; totals are unaffected.
func BuildCostTree(snap Snapshot, window Window, detail bool) (*CostNode, error) {
	ix := NewPriceIndex(snap.Prices)

	leaves, err := resolveLeaves(snap.States, window)
	if err != nil {
		return nil, err
	}

	nodes := make([]*CostNode, len(leaves))
	errs := make([]error, len(leaves))

	var wg sync.WaitGroup
	for i := range leaves {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nodes[i], errs[i] = serverCost(ix, leaves[i].Intervals)
		}(i)
	}
	wg.Wait()

	// First error in canonical order wins, so the reported failure is stable
	// across runs.
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	root := NewCostNode(LevelAll, "", "")
	if !detail {
		root.Flavors = nil
	}
	for i, leaf := range leaves {
		root = Merge(root, costSpine(leaf.Key, nodes[i], detail))
	}

	return root, nil
}

// BuildConsumptionTree computes the full consumption tree for a snapshot.
func BuildConsumptionTree(snap Snapshot, window Window) (*ConsumptionNode, error) {
	leaves, err := resolveLeaves(snap.States, window)
	if err != nil {
		return nil, err
	}

	nodes := make([]*ConsumptionNode, len(leaves))

	var wg sync.WaitGroup
	for i := range leaves {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nodes[i] = serverConsumption(leaves[i].Intervals)
		}(i)
	}
	wg.Wait()

	root := NewConsumptionNode(LevelAll, "", "")
	for i, leaf := range leaves {
		root = MergeConsumption(root, consumptionSpine(leaf.Key, nodes[i]))
	}

	return root, nil
}

// costSpine wraps a server leaf in its user, project, and global ancestors so
// the whole path can be merged into an accumulator in one operation.
func costSpine(key leafKey, leaf *CostNode, detail bool) *CostNode {
	user := NewCostNode(LevelUser, key.UserID, key.Username)
	user.Total = leaf.Total
	for k, v := range leaf.Flavors {
		user.Flavors[k] += v
	}
	user.Children = map[string]*CostNode{leaf.Name: leaf}

	project := NewCostNode(LevelProject, key.ProjectID, key.ProjectName)
	project.Total = leaf.Total
	if detail {
		for k, v := range leaf.Flavors {
			project.Flavors[k] += v
		}
	} else {
		project.Flavors = nil
	}
	project.Children = map[string]*CostNode{user.Name: user}

	root := NewCostNode(LevelAll, "", "")
	root.Total = leaf.Total
	if detail {
		for k, v := range leaf.Flavors {
			root.Flavors[k] += v
		}
	} else {
		root.Flavors = nil
	}
	root.Children = map[string]*CostNode{project.Name: project}

	return root
}

func consumptionSpine(key leafKey, leaf *ConsumptionNode) *ConsumptionNode {
	user := NewConsumptionNode(LevelUser, key.UserID, key.Username)
	for k, v := range leaf.Resources {
		user.Resources[k] += v
	}
	user.Children = map[string]*ConsumptionNode{leaf.Name: leaf}

	project := NewConsumptionNode(LevelProject, key.ProjectID, key.ProjectName)
	for k, v := range leaf.Resources {
		project.Resources[k] += v
	}
	project.Children = map[string]*ConsumptionNode{user.Name: user}

	root := NewConsumptionNode(LevelAll, "", "")
	for k, v := range leaf.Resources {
		root.Resources[k] += v
	}
	root.Children = map[string]*ConsumptionNode{project.Name: project}

	return root
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
