// Package core implements the transactional medication service and the
// adherence and projection engine: pure functions over snapshot slices that
// classify days, build task lists, and project inventory coverage.
package core

import (
	"math"

	"medcabinet/pkg/domain"
)

// HasInventoryOnDate reports whether enough stock exists to consider the
// medication's doses due on date. Dates before today are always covered:
// history is shown regardless of stock. The projection divides current stock
// by the full daily dose; it does not re-subtract doses already logged today
// because the inventory field itself already reflects consumption.
func HasInventoryOnDate(med domain.Medication, date, today domain.Day) bool {
	if date.Before(today) {
		return true
	}
	dailyDose := med.DailyDose()
	if dailyDose == 0 {
		return true
	}
	daysSupplied := int(math.Floor(med.CurrentInventory / dailyDose))
	diff := today.DaysUntil(date)
	return diff < daysSupplied
}

// DaysOfSupply returns how many whole days the current stock covers, and
// whether the value is meaningful (false when no doses are scheduled).
func DaysOfSupply(med domain.Medication) (int, bool) {
	dailyDose := med.DailyDose()
	if dailyDose == 0 {
		return 0, false
	}
	return int(math.Floor(med.CurrentInventory / dailyDose)), true
}

// LowStock returns the active medications at or below their refill threshold.
// Medications known to have zero refills remaining are suppressed: there is
// nothing actionable to order.
func LowStock(meds []domain.Medication) []domain.Medication {
	var out []domain.Medication
	for _, med := range meds {
		if med.Status != domain.MedicationActive {
			continue
		}
		if med.CurrentInventory > med.RefillThreshold {
			continue
		}
		if med.RefillsRemaining.IsNone() {
			continue
		}
		out = append(out, med)
	}
	return out
}

// ExpectedRefills returns the active medications whose scheduled refill
// pickup falls on date.
func ExpectedRefills(meds []domain.Medication, date domain.Day) []domain.Medication {
	var out []domain.Medication
	for _, med := range meds {
		if med.Status != domain.MedicationActive {
			continue
		}
		if med.RefillExpectedDate != nil && *med.RefillExpectedDate == date {
			out = append(out, med)
		}
	}
	return out
}
