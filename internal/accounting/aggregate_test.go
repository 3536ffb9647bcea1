package accounting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbill/internal/accounting"
	"cloudbill/pkg/types"
)

const tolerance = 1e-9

func costNode(level accounting.Level, id, name string, total float64, flavors map[string]float64) *accounting.CostNode {
	node := accounting.NewCostNode(level, id, name)
	node.Total = total
	for k, v := range flavors {
		node.Flavors[k] = v
	}
	return node
}

func TestMerge(t *testing.T) {
	a := costNode(accounting.LevelUser, "usr-1", "alice", 3.0, map[string]float64{"m1.small": 1.0, "m1.large": 2.0})
	b := costNode(accounting.LevelUser, "usr-1", "alice", 5.0, map[string]float64{"m1.small": 4.0, "m1.tiny": 1.0})
	c := costNode(accounting.LevelUser, "usr-1", "alice", 0.5, map[string]float64{"m1.large": 0.5})

	t.Run("sums totals and unions flavor maps", func(t *testing.T) {
		out := accounting.Merge(a, b)
		assert.InDelta(t, 8.0, out.Total, tolerance)
		assert.InDelta(t, 5.0, out.Flavors["m1.small"], tolerance)
		assert.InDelta(t, 2.0, out.Flavors["m1.large"], tolerance)
		assert.InDelta(t, 1.0, out.Flavors["m1.tiny"], tolerance)
	})

	t.Run("is commutative", func(t *testing.T) {
		ab := accounting.Merge(a, b)
		ba := accounting.Merge(b, a)
		assert.Equal(t, ab.Total, ba.Total)
		assert.Equal(t, ab.Flavors, ba.Flavors)
	})

	t.Run("is associative within tolerance", func(t *testing.T) {
		left := accounting.Merge(accounting.Merge(a, b), c)
		right := accounting.Merge(a, accounting.Merge(b, c))
		rotated := accounting.Merge(c, accounting.Merge(a, b))

		assert.InDelta(t, left.Total, right.Total, tolerance)
		assert.InDelta(t, left.Total, rotated.Total, tolerance)
		for k := range left.Flavors {
			assert.InDelta(t, left.Flavors[k], right.Flavors[k], tolerance, k)
			assert.InDelta(t, left.Flavors[k], rotated.Flavors[k], tolerance, k)
		}
	})

	t.Run("merges nested children recursively", func(t *testing.T) {
		pa := costNode(accounting.LevelProject, "prj-1", "research", 3.0, nil)
		pa.Children = map[string]*accounting.CostNode{
			"alice": costNode(accounting.LevelUser, "usr-1", "alice", 3.0, map[string]float64{"m1.small": 3.0}),
		}

		pb := costNode(accounting.LevelProject, "prj-1", "research", 2.0, nil)
		pb.Children = map[string]*accounting.CostNode{
			"alice": costNode(accounting.LevelUser, "usr-1", "alice", 1.0, map[string]float64{"m1.small": 1.0}),
			"bob":   costNode(accounting.LevelUser, "usr-2", "bob", 1.0, map[string]float64{"m1.large": 1.0}),
		}

		out := accounting.Merge(pa, pb)
		require.Len(t, out.Children, 2)
		assert.InDelta(t, 4.0, out.Children["alice"].Total, tolerance)
		assert.InDelta(t, 1.0, out.Children["bob"].Total, tolerance)
	})

	t.Run("nil operands pass through", func(t *testing.T) {
		assert.Same(t, a, accounting.Merge(a, nil))
		assert.Same(t, a, accounting.Merge(nil, a))
	})
}

func snapshotFixture() accounting.Snapshot {
	jan1 := ts(2024, time.January, 1, 0, 0)

	rec := func(instance, flavor, user, project string, class int, begin, end time.Time) types.StateRecord {
		return types.StateRecord{
			InstanceID:   instance,
			InstanceName: "vm-" + instance,
			FlavorID:     "flv-" + flavor,
			FlavorName:   flavor,
			UserID:       "usr-" + user,
			Username:     user,
			ProjectID:    "prj-" + project,
			ProjectName:  project,
			UserClass:    class,
			Status:       "active",
			Begin:        begin,
			End:          timePtr(end),
		}
	}

	return accounting.Snapshot{
		States: []types.StateRecord{
			rec("a1", "m1.small", "alice", "research", 1, jan1, jan1.Add(10*time.Hour)),
			rec("a2", "m1.large", "alice", "research", 1, jan1, jan1.Add(4*time.Hour)),
			rec("b1", "m1.small", "bob", "research", 1, jan1.Add(2*time.Hour), jan1.Add(8*time.Hour)),
			rec("c1", "m1.large", "carol", "teaching", 2, jan1, jan1.Add(24*time.Hour)),
		},
		Prices: []types.PriceRecord{
			priceRecord("flv-m1.small", 1, 0.10, ts(2023, time.January, 1, 0, 0)),
			priceRecord("flv-m1.large", 1, 0.40, ts(2023, time.January, 1, 0, 0)),
			priceRecord("flv-m1.large", 2, 0.20, ts(2023, time.January, 1, 0, 0)),
		},
	}
}

func TestBuildCostTree(t *testing.T) {
	snap := snapshotFixture()
	window := accounting.Window{
		Begin: ts(2024, time.January, 1, 0, 0),
		End:   ts(2024, time.February, 1, 0, 0),
	}

	t.Run("tree totals are consistent across levels", func(t *testing.T) {
		root, err := accounting.BuildCostTree(snap, window, true)
		require.NoError(t, err)

		var projectSum float64
		for _, project := range root.Children {
			projectSum += project.Total

			var userSum float64
			for _, user := range project.Children {
				userSum += user.Total

				var serverSum float64
				for _, server := range user.Children {
					serverSum += server.Total
				}
				assert.InDelta(t, user.Total, serverSum, tolerance)
			}
			assert.InDelta(t, project.Total, userSum, tolerance)
		}
		assert.InDelta(t, root.Total, projectSum, tolerance)
	})

	t.Run("computes expected totals", func(t *testing.T) {
		root, err := accounting.BuildCostTree(snap, window, true)
		require.NoError(t, err)

		// alice: 10h*0.10 + 4h*0.40 = 2.60; bob: 6h*0.10 = 0.60; carol: 24h*0.20 = 4.80
		research := root.Children["research"]
		require.NotNil(t, research)
		assert.InDelta(t, 3.20, research.Total, tolerance)
		assert.InDelta(t, 2.60, research.Children["alice"].Total, tolerance)
		assert.InDelta(t, 0.60, research.Children["bob"].Total, tolerance)

		teaching := root.Children["teaching"]
		require.NotNil(t, teaching)
		assert.InDelta(t, 4.80, teaching.Total, tolerance)

		assert.InDelta(t, 8.00, root.Total, tolerance)
	})

	t.Run("is deterministic across runs", func(t *testing.T) {
		first, err := accounting.BuildCostTree(snap, window, true)
		require.NoError(t, err)

		for i := 0; i < 20; i++ {
			again, err := accounting.BuildCostTree(snap, window, true)
			require.NoError(t, err)
			// Bit-identical, not merely within tolerance.
			assert.Equal(t, first, again)
		}
	})

	t.Run("detail off drops flavor maps at project and global levels", func(t *testing.T) {
		root, err := accounting.BuildCostTree(snap, window, false)
		require.NoError(t, err)

		assert.Nil(t, root.Flavors)
		for _, project := range root.Children {
			assert.Nil(t, project.Flavors)
			for _, user := range project.Children {
				assert.NotNil(t, user.Flavors)
			}
		}

		detailed, err := accounting.BuildCostTree(snap, window, true)
		require.NoError(t, err)
		assert.Equal(t, detailed.Total, root.Total)
	})

	t.Run("missing price poisons the computation with instance context", func(t *testing.T) {
		broken := snapshotFixture()
		broken.Prices = broken.Prices[:1] // drop m1.large regimes

		_, err := accounting.BuildCostTree(broken, window, true)
		require.Error(t, err)

		var noPrice *accounting.NoPriceError
		require.ErrorAs(t, err, &noPrice)
		assert.Contains(t, err.Error(), "instance")
	})

	t.Run("additivity: contiguous records equal one whole record", func(t *testing.T) {
		jan1 := ts(2024, time.January, 1, 0, 0)
		whole := snapshotFixture()
		whole.States = whole.States[:1] // a1, [00:00, 10:00)

		pieces := snapshotFixture()
		pieces.States = pieces.States[:1]
		mid := jan1.Add(3 * time.Hour)
		first := pieces.States[0]
		first.End = timePtr(mid)
		second := pieces.States[0]
		second.Begin = mid
		pieces.States = []types.StateRecord{first, second}

		wholeTree, err := accounting.BuildCostTree(whole, window, true)
		require.NoError(t, err)
		piecesTree, err := accounting.BuildCostTree(pieces, window, true)
		require.NoError(t, err)

		assert.InDelta(t, wholeTree.Total, piecesTree.Total, tolerance)
	})
}

func TestBuildConsumptionTree(t *testing.T) {
	snap := snapshotFixture()
	window := accounting.Window{
		Begin: ts(2024, time.January, 1, 0, 0),
		End:   ts(2024, time.February, 1, 0, 0),
	}

	t.Run("accumulates resource hours per flavor", func(t *testing.T) {
		root, err := accounting.BuildConsumptionTree(snap, window)
		require.NoError(t, err)

		assert.InDelta(t, 16.0, root.Resources["m1.small"], tolerance) // 10 + 6
		assert.InDelta(t, 28.0, root.Resources["m1.large"], tolerance) // 4 + 24

		research := root.Children["research"]
		require.NotNil(t, research)
		assert.InDelta(t, 10.0, research.Children["alice"].Children["vm-a1"].Resources["m1.small"], tolerance)
	})

	t.Run("needs no price history", func(t *testing.T) {
		snap := snapshotFixture()
		snap.Prices = nil

		_, err := accounting.BuildConsumptionTree(snap, window)
		require.NoError(t, err)
	})
}
