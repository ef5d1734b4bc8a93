package core

import (
	"context"
	"fmt"

	"medcabinet/pkg/domain"
)

// NewInventoryFloorRule returns the rule rejecting negative inventory.
// Mutation paths clamp at zero before commit; this rule is the backstop for
// any path that forgets to.
func NewInventoryFloorRule() domain.Rule {
	return inventoryFloorRule{}
}

type inventoryFloorRule struct{}

func (inventoryFloorRule) Name() string { return "inventory_floor" }

func (inventoryFloorRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, med := range view.ListMedications() {
		if med.CurrentInventory >= 0 {
			continue
		}
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "inventory_floor",
			Severity: domain.SeverityBlock,
			Message:  fmt.Sprintf("medication %s (%s) has negative inventory %v", med.Name, med.ID, med.CurrentInventory),
			Entity:   domain.EntityMedication,
			EntityID: med.ID,
		})
	}
	return res, nil
}
