package core

import (
	"context"
	"fmt"

	"medcabinet/pkg/domain"
)

// NewDosePositiveRule returns the rule requiring every schedule block to
// carry a positive dose quantity.
func NewDosePositiveRule() domain.Rule {
	return dosePositiveRule{}
}

type dosePositiveRule struct{}

func (dosePositiveRule) Name() string { return "dose_positive" }

func (dosePositiveRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, med := range view.ListMedications() {
		for _, block := range med.Schedule {
			if block.Dose > 0 {
				continue
			}
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "dose_positive",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("medication %s (%s) block %s has non-positive dose %v", med.Name, med.ID, block.TimeBlock, block.Dose),
				Entity:   domain.EntityMedication,
				EntityID: med.ID,
			})
		}
	}
	return res, nil
}
