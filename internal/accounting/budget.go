package accounting

import "cloudbill/pkg/types"

type budgetEntity struct {
	kind     types.BudgetKind
	entityID string
}

// AnnotateBudgets attaches budget amount and the over-budget flag to the
// project and user nodes of a cost tree. Budgets are matched by entity ID
// against the given records, which the caller fetched for a single year.
// A node with no matching budget keeps its cost data and simply carries no
// budget fields; that is a scope-has-no-budget condition, not an error.
func AnnotateBudgets(root *CostNode, budgets []types.BudgetRecord) {
	byEntity := make(map[budgetEntity]types.BudgetRecord, len(budgets))
	for _, b := range budgets {
		byEntity[budgetEntity{kind: b.Kind, entityID: b.EntityID}] = b
	}

	for _, project := range root.Children {
		annotate(project, types.BudgetKindProject, byEntity)
		for _, user := range project.Children {
			annotate(user, types.BudgetKindUser, byEntity)
		}
	}
}

func annotate(node *CostNode, kind types.BudgetKind, byEntity map[budgetEntity]types.BudgetRecord) {
	rec, ok := byEntity[budgetEntity{kind: kind, entityID: node.ID}]
	if !ok {
		return
	}

	id := rec.ID
	amount := rec.Amount
	over := node.Total > rec.Amount

	node.BudgetID = &id
	node.Budget = &amount
	node.Over = &over
}
