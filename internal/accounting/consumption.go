package accounting

import (
	"fmt"
	"sort"
)

const secondsPerHour = 3600.0

// serverConsumption folds an instance's resolved intervals into a server-level
// consumption node. Intervals are folded in ascending begin order so repeated
// runs over the same snapshot produce bit-identical sums.
func serverConsumption(intervals []Interval) *ConsumptionNode {
	node := NewConsumptionNode(LevelServer, "", "")

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Begin.Before(intervals[j].Begin)
	})

	for _, iv := range intervals {
		if node.ID == "" {
			node.ID = iv.InstanceID
			node.Name = iv.InstanceName
		}
		node.Resources[iv.FlavorName] += iv.Duration().Seconds() / secondsPerHour
	}

	return node
}

// serverCost folds an instance's resolved intervals into a server-level cost
// node, splitting each interval at price-regime boundaries first. A missing
// price regime fails the whole node; the error carries the instance identity
// so the caller can report which server poisoned the computation.
func serverCost(ix *PriceIndex, intervals []Interval) (*CostNode, error) {
	node := NewCostNode(LevelServer, "", "")

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Begin.Before(intervals[j].Begin)
	})

	for _, iv := range intervals {
		if node.ID == "" {
			node.ID = iv.InstanceID
			node.Name = iv.InstanceName
		}

		pieces, err := ix.Split(iv.FlavorID, iv.UserClass, iv.Begin, iv.End)
		if err != nil {
			return nil, fmt.Errorf("instance %s (%s): %w", iv.InstanceID, iv.InstanceName, err)
		}

		for _, p := range pieces {
			cost := p.Hours() * p.UnitPrice
			node.Flavors[iv.FlavorName] += cost
			node.Total += cost
		}
	}

	return node, nil
}
