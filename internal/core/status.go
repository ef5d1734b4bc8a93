package core

import (
	"sort"

	"medcabinet/pkg/domain"
)

// DoseStatus classifies a (medication, day) pair or a whole day.
type DoseStatus string

// Day classification values. StatusEmpty only appears in the per-day
// aggregate: a day where doses were scheduled but nothing was taken.
const (
	StatusNone     DoseStatus = "none"
	StatusComplete DoseStatus = "complete"
	StatusPartial  DoseStatus = "partial"
	StatusMissed   DoseStatus = "missed"
	StatusEmpty    DoseStatus = "empty"
)

// takenOn reports whether a taken log exists for the key tuple.
func takenOn(logs []domain.DoseLog, medicationID string, date domain.Day, block domain.TimeBlockID) bool {
	for _, log := range logs {
		if log.MedicationID == medicationID && log.ScheduledDate == date && log.TimeBlock == block && log.Taken {
			return true
		}
	}
	return false
}

func anyTakenOn(logs []domain.DoseLog, medicationID string, date domain.Day) bool {
	for _, log := range logs {
		if log.MedicationID == medicationID && log.ScheduledDate == date && log.Taken {
			return true
		}
	}
	return false
}

// MedicationDayStatus classifies one medication on one calendar day.
func MedicationDayStatus(med domain.Medication, logs []domain.DoseLog, date, today domain.Day) DoseStatus {
	if !med.ActiveOn(date) {
		return StatusNone
	}
	hasInventory := HasInventoryOnDate(med, date, today)
	scheduled := len(med.Schedule)
	taken := 0
	for _, block := range med.Schedule {
		if takenOn(logs, med.ID, date, block.TimeBlock) {
			taken++
		}
	}
	switch {
	case !hasInventory && taken == 0:
		return StatusNone
	case scheduled == 0:
		return StatusNone
	case taken == scheduled:
		return StatusComplete
	case taken > 0:
		return StatusPartial
	default:
		return StatusMissed
	}
}

// DayStatus aggregates scheduled and taken counts across every medication
// eligible on date. A medication counts when it has a taken log that day or
// projected inventory coverage.
func DayStatus(meds []domain.Medication, logs []domain.DoseLog, date, today domain.Day) DoseStatus {
	totalScheduled := 0
	totalTaken := 0
	for _, med := range meds {
		if !med.ActiveOn(date) {
			continue
		}
		if !HasInventoryOnDate(med, date, today) && !anyTakenOn(logs, med.ID, date) {
			continue
		}
		for _, block := range med.Schedule {
			totalScheduled++
			if takenOn(logs, med.ID, date, block.TimeBlock) {
				totalTaken++
			}
		}
	}
	switch {
	case totalScheduled == 0:
		return StatusNone
	case totalTaken == totalScheduled:
		return StatusComplete
	case totalTaken > 0:
		return StatusPartial
	default:
		return StatusEmpty
	}
}

// Task is one actionable dose slot on a given day.
type Task struct {
	MedicationID   string
	MedicationName string
	TimeBlock      domain.TimeBlockID
	Dose           float64
	Completed      bool
}

// TasksForDay builds the day's task list: one entry per eligible
// (medication, schedule block) that is either already logged taken or
// projected to be due. Ordering follows the time-block catalog, then
// medication name so the list is deterministic.
func TasksForDay(meds []domain.Medication, logs []domain.DoseLog, date, today domain.Day) []Task {
	var tasks []Task
	for _, med := range meds {
		if !med.ActiveOn(date) {
			continue
		}
		hasInventory := HasInventoryOnDate(med, date, today)
		for _, block := range med.Schedule {
			completed := takenOn(logs, med.ID, date, block.TimeBlock)
			if !completed && !hasInventory {
				continue
			}
			tasks = append(tasks, Task{
				MedicationID:   med.ID,
				MedicationName: med.Name,
				TimeBlock:      block.TimeBlock,
				Dose:           block.Dose,
				Completed:      completed,
			})
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		oi := domain.TimeBlockSortOrder(tasks[i].TimeBlock)
		oj := domain.TimeBlockSortOrder(tasks[j].TimeBlock)
		if oi != oj {
			return oi < oj
		}
		return tasks[i].MedicationName < tasks[j].MedicationName
	})
	return tasks
}

// RemainingDosesToday counts today's unlogged scheduled blocks across active
// medications. Notification sinks use it as the badge count.
func RemainingDosesToday(meds []domain.Medication, logs []domain.DoseLog, today domain.Day) int {
	remaining := 0
	for _, task := range TasksForDay(meds, logs, today, today) {
		if !task.Completed {
			remaining++
		}
	}
	return remaining
}
