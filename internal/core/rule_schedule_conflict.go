package core

import (
	"context"
	"fmt"

	"medcabinet/pkg/domain"
)

// NewScheduleConflictRule returns the in-transaction rule enforcing at most
// one schedule block per time block within a medication.
func NewScheduleConflictRule() domain.Rule {
	return scheduleConflictRule{}
}

type scheduleConflictRule struct{}

func (scheduleConflictRule) Name() string { return "schedule_conflict" }

func (scheduleConflictRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, med := range view.ListMedications() {
		seen := make(map[domain.TimeBlockID]int, len(med.Schedule))
		for _, block := range med.Schedule {
			seen[block.TimeBlock]++
		}
		for tb, count := range seen {
			if count > 1 {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "schedule_conflict",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("medication %s (%s) has %d schedule blocks for time block %s", med.Name, med.ID, count, tb),
					Entity:   domain.EntityMedication,
					EntityID: med.ID,
				})
			}
		}
	}
	return res, nil
}
