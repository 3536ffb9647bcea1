package accounting_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cloudbill/internal/accounting"
	"cloudbill/pkg/types"
)

// Scenario: a single 12-hour state record priced at a flat 0.10/hour.
func TestEngine_SingleRecord(t *testing.T) {
	engine := accounting.NewEngine()

	snap := accounting.Snapshot{
		States: []types.StateRecord{
			{
				InstanceID:   "i-1",
				InstanceName: "vm-i-1",
				FlavorID:     "flv-a",
				FlavorName:   "A",
				UserID:       "usr-1",
				Username:     "alice",
				ProjectID:    "prj-1",
				ProjectName:  "research",
				UserClass:    1,
				Status:       "active",
				Begin:        ts(2024, time.January, 1, 0, 0),
				End:          timePtr(ts(2024, time.January, 1, 12, 0)),
			},
		},
		Prices: []types.PriceRecord{
			priceRecord("flv-a", 1, 0.10, ts(2023, time.January, 1, 0, 0)),
		},
	}
	window := accounting.Window{
		Begin: ts(2024, time.January, 1, 0, 0),
		End:   ts(2024, time.January, 2, 0, 0),
	}

	consumption, err := engine.Consumption(snap, window)
	require.NoError(t, err)
	assert.InDelta(t, 12.0, consumption.Resources["A"], tolerance)

	cost, err := engine.Cost(snap, window)
	require.NoError(t, err)
	assert.InDelta(t, 1.20, cost.Total, tolerance)
	assert.InDelta(t, 1.20, cost.Flavors["A"], tolerance)
}

// Scenario: the unit price changes in the middle of a running interval.
func TestEngine_PriceChangeMidInterval(t *testing.T) {
	engine := accounting.NewEngine()

	snap := accounting.Snapshot{
		States: []types.StateRecord{
			{
				InstanceID:   "i-1",
				InstanceName: "vm-i-1",
				FlavorID:     "flv-a",
				FlavorName:   "A",
				UserID:       "usr-1",
				Username:     "alice",
				ProjectID:    "prj-1",
				ProjectName:  "research",
				UserClass:    1,
				Status:       "active",
				Begin:        ts(2024, time.January, 1, 10, 0),
				End:          timePtr(ts(2024, time.January, 1, 14, 0)),
			},
		},
		Prices: []types.PriceRecord{
			priceRecord("flv-a", 1, 0.10, ts(2023, time.January, 1, 0, 0)),
			{
				ID:        "prc_2",
				FlavorID:  "flv-a",
				UserClass: 1,
				UnitPrice: 0.20,
				StartTime: ts(2024, time.January, 1, 12, 0),
			},
		},
	}
	window := accounting.Window{
		Begin: ts(2024, time.January, 1, 0, 0),
		End:   ts(2024, time.January, 2, 0, 0),
	}

	cost, err := engine.Cost(snap, window)
	require.NoError(t, err)

	// [10:00, 12:00) at 0.10 = 0.20, [12:00, 14:00) at 0.20 = 0.40.
	assert.InDelta(t, 0.60, cost.Total, tolerance)
}

// Scenario: an instance with no records in the window yields an empty tree,
// not an error.
func TestEngine_EmptyWindow(t *testing.T) {
	engine := accounting.NewEngine()

	snap := accounting.Snapshot{
		States: []types.StateRecord{
			{
				InstanceID:   "i-1",
				InstanceName: "vm-i-1",
				FlavorID:     "flv-a",
				FlavorName:   "A",
				UserID:       "usr-1",
				Username:     "alice",
				ProjectID:    "prj-1",
				ProjectName:  "research",
				UserClass:    1,
				Status:       "active",
				Begin:        ts(2023, time.June, 1, 0, 0),
				End:          timePtr(ts(2023, time.July, 1, 0, 0))},
		},
		Prices: []types.PriceRecord{
			priceRecord("flv-a", 1, 0.10, ts(2023, time.January, 1, 0, 0)),
		},
	}
	window := accounting.Window{
		Begin: ts(2024, time.January, 1, 0, 0),
		End:   ts(2024, time.February, 1, 0, 0),
	}

	cost, err := engine.Cost(snap, window)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cost.Total)
	assert.Empty(t, cost.Flavors)
	assert.Empty(t, cost.Children)

	consumption, err := engine.Consumption(snap, window)
	require.NoError(t, err)
	assert.NotNil(t, consumption.Resources)
	assert.Empty(t, consumption.Resources)
}

func TestEngine_Budget(t *testing.T) {
	snap := snapshotFixture()
	engine := accounting.NewEngine()

	// Fixture costs fall inside 2024: research = 3.20, teaching = 4.80.
	snap.Budgets = []types.BudgetRecord{
		{ID: "bud_1", Kind: types.BudgetKindProject, EntityID: "prj-research", Year: 2024, Amount: 2.00},
		{ID: "bud_2", Kind: types.BudgetKindProject, EntityID: "prj-teaching", Year: 2024, Amount: 10.00},
		{ID: "bud_3", Kind: types.BudgetKindUser, EntityID: "usr-alice", Year: 2024, Amount: 2.50},
	}

	t.Run("flags over and under budget projects", func(t *testing.T) {
		root, err := engine.Budget(snap, 2024, true)
		require.NoError(t, err)

		research := root.Children["research"]
		require.NotNil(t, research)
		require.NotNil(t, research.Over)
		assert.True(t, *research.Over)
		assert.Equal(t, "bud_1", *research.BudgetID)
		assert.Equal(t, 2.00, *research.Budget)

		teaching := root.Children["teaching"]
		require.NotNil(t, teaching)
		require.NotNil(t, teaching.Over)
		assert.False(t, *teaching.Over)
	})

	t.Run("annotates user nodes", func(t *testing.T) {
		root, err := engine.Budget(snap, 2024, true)
		require.NoError(t, err)

		alice := root.Children["research"].Children["alice"]
		require.NotNil(t, alice.Over)
		assert.True(t, *alice.Over) // 2.60 > 2.50
	})

	t.Run("missing budget leaves fields absent", func(t *testing.T) {
		root, err := engine.Budget(snap, 2024, true)
		require.NoError(t, err)

		bob := root.Children["research"].Children["bob"]
		assert.Nil(t, bob.BudgetID)
		assert.Nil(t, bob.Budget)
		assert.Nil(t, bob.Over)
		assert.InDelta(t, 0.60, bob.Total, tolerance)
	})

	t.Run("detail off omits project flavor maps but keeps flags", func(t *testing.T) {
		root, err := engine.Budget(snap, 2024, false)
		require.NoError(t, err)

		research := root.Children["research"]
		assert.Nil(t, research.Flavors)
		require.NotNil(t, research.Over)
		assert.True(t, *research.Over)
	})
}
