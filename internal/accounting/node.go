package accounting

// Level identifies one aggregation level of a report tree.
type Level string

const (
	LevelAll     Level = "all"
	LevelProject Level = "project"
	LevelUser    Level = "user"
	LevelServer  Level = "server"
)

// ConsumptionNode is one level of a consumption tree: resource-hours per
// flavor name, plus child nodes keyed by child name at the levels above
// server. Nodes are ephemeral; they are built per request and handed to the
// serialization layer, never stored.
type ConsumptionNode struct {
	Level     Level                       `json:"level"`
	ID        string                      `json:"id,omitempty"`
	Name      string                      `json:"name,omitempty"`
	Resources map[string]float64          `json:"resources"`
	Children  map[string]*ConsumptionNode `json:"children,omitempty"`
}

// CostNode mirrors ConsumptionNode in currency units. Total is the sum over
// the flavor map; Flavors is omitted at project and global levels unless the
// caller asked for detail. The Budget fields are populated only by budget
// reports, and only when a budget exists for the node's entity and year.
type CostNode struct {
	Level    Level                `json:"level"`
	ID       string               `json:"id,omitempty"`
	Name     string               `json:"name,omitempty"`
	Total    float64              `json:"total"`
	Flavors  map[string]float64   `json:"flavors,omitempty"`
	Children map[string]*CostNode `json:"children,omitempty"`

	BudgetID *string  `json:"budget_id,omitempty"`
	Budget   *float64 `json:"budget,omitempty"`
	Over     *bool    `json:"over,omitempty"`
}

// NewConsumptionNode returns an empty node for the given level and entity.
// The resource map is allocated so an idle entity serializes as an empty
// object rather than null.
func NewConsumptionNode(level Level, id, name string) *ConsumptionNode {
	return &ConsumptionNode{
		Level:     level,
		ID:        id,
		Name:      name,
		Resources: make(map[string]float64),
	}
}

// NewCostNode returns an empty zero-total node for the given level and entity.
func NewCostNode(level Level, id, name string) *CostNode {
	return &CostNode{
		Level:   level,
		ID:      id,
		Name:    name,
		Flavors: make(map[string]float64),
	}
}
