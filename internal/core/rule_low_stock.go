package core

import (
	"context"
	"fmt"

	"medcabinet/pkg/domain"
)

// NewLowStockRule returns the advisory rule flagging active medications at or
// below their refill threshold. It never blocks: running low is a fact to
// surface, not an invalid state. Medications with zero refills remaining are
// skipped because no pickup can be ordered for them.
func NewLowStockRule() domain.Rule {
	return lowStockRule{}
}

type lowStockRule struct{}

func (lowStockRule) Name() string { return "low_stock" }

func (lowStockRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, med := range LowStock(view.ListMedications()) {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "low_stock",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("medication %s (%s) inventory %v at or below threshold %v", med.Name, med.ID, med.CurrentInventory, med.RefillThreshold),
			Entity:   domain.EntityMedication,
			EntityID: med.ID,
		})
	}
	return res, nil
}

// NewRulesEngine returns an engine loaded with the default rule set.
func NewRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(NewScheduleConflictRule())
	engine.Register(NewDosePositiveRule())
	engine.Register(NewInventoryFloorRule())
	engine.Register(NewLowStockRule())
	return engine
}
