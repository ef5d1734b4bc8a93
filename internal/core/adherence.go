package core

import (
	"math"
	"sort"

	"medcabinet/pkg/domain"
)

// adherenceWindowDays is the trailing window the adherence metric covers.
const adherenceWindowDays = 30

// Adherence returns the percentage of scheduled doses logged as taken over
// the trailing 30 days, bounded by the medication's add date and any stop
// date. A medication with nothing scheduled in the window scores 100;
// stopped and paused medications score 0.
func Adherence(med domain.Medication, logs []domain.DoseLog, today domain.Day) int {
	if med.Status != domain.MedicationActive {
		return 0
	}
	scheduled := 0
	taken := 0
	for i := 0; i < adherenceWindowDays; i++ {
		day := today.AddDays(-i)
		if !med.ActiveOn(day) {
			continue
		}
		for _, block := range med.Schedule {
			scheduled++
			if takenOn(logs, med.ID, day, block.TimeBlock) {
				taken++
			}
		}
	}
	if scheduled == 0 {
		return 100
	}
	return int(math.Round(100 * float64(taken) / float64(scheduled)))
}

// RecentLogs returns the medication's newest taken logs, most recent first,
// capped at limit.
func RecentLogs(med domain.Medication, logs []domain.DoseLog, limit int) []domain.DoseLog {
	var own []domain.DoseLog
	for _, log := range logs {
		if log.MedicationID == med.ID && log.Taken {
			own = append(own, log)
		}
	}
	sort.Slice(own, func(i, j int) bool { return own[i].Timestamp.After(own[j].Timestamp) })
	if limit > 0 && len(own) > limit {
		own = own[:limit]
	}
	return own
}
