// Package notify plans the local notifications for a calendar day: dose
// reminders from schedule blocks, refill pickup alerts, and the optional
// daily summary. Planning is pure; delivery goes through a Sink so the
// surrounding app decides how reminders reach the user.
package notify

import (
	"fmt"
	"sort"

	"medcabinet/internal/core"
	"medcabinet/pkg/domain"
)

// Kind distinguishes the notification categories.
type Kind string

const (
	KindDose    Kind = "dose"
	KindRefill  Kind = "refill"
	KindSummary Kind = "summary"
)

// Notification is one planned reminder for a specific day.
type Notification struct {
	Kind         Kind               `json:"kind"`
	MedicationID string             `json:"medication_id,omitempty"`
	TimeBlock    domain.TimeBlockID `json:"time_block,omitempty"`
	Time         string             `json:"time"` // "HH:MM"
	Title        string             `json:"title"`
	Body         string             `json:"body"`
}

// Sink receives planned notifications and the app badge count.
type Sink interface {
	Deliver(n Notification) error
	SetBadge(count int) error
}

const defaultRefillAlertTime = "10:00"

// PlanForDay assembles the notifications due on the given day. Dose
// reminders come from schedule blocks with notifications enabled on
// medications active that day that still have projected inventory; refill
// alerts fire for medications whose expected pickup date is the day;
// the summary is appended when enabled in settings. Results are ordered
// by time, then medication name.
func PlanForDay(meds []domain.Medication, settings domain.AppSettings, date, today domain.Day) []Notification {
	var out []Notification

	for _, med := range meds {
		if !med.ActiveOn(date) || med.Status != domain.MedicationActive {
			continue
		}
		if !core.HasInventoryOnDate(med, date, today) {
			continue
		}
		for _, block := range med.Schedule {
			if !block.NotificationEnabled || block.NotificationTime == "" {
				continue
			}
			label := string(block.TimeBlock)
			if tb, ok := domain.LookupTimeBlock(block.TimeBlock); ok {
				label = tb.Label
			}
			out = append(out, Notification{
				Kind:         KindDose,
				MedicationID: med.ID,
				TimeBlock:    block.TimeBlock,
				Time:         block.NotificationTime,
				Title:        "Time for " + displayName(med),
				Body:         fmt.Sprintf("Take %g at %s", block.Dose, label),
			})
		}
	}

	for _, med := range core.ExpectedRefills(meds, date) {
		if !med.RefillAlertEnabled {
			continue
		}
		alertTime := med.RefillAlertTime
		if alertTime == "" {
			alertTime = defaultRefillAlertTime
		}
		out = append(out, Notification{
			Kind:         KindRefill,
			MedicationID: med.ID,
			Time:         alertTime,
			Title:        "Refill pickup: " + displayName(med),
			Body:         "Your refill is expected to be ready today.",
		})
	}

	if settings.DailySummaryEnabled && settings.DailySummaryTime != "" {
		out = append(out, Notification{
			Kind:  KindSummary,
			Time:  settings.DailySummaryTime,
			Title: "Daily medication summary",
			Body:  "Review today's doses and mark what you've taken.",
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Time != out[j].Time {
			return out[i].Time < out[j].Time
		}
		return out[i].MedicationID < out[j].MedicationID
	})
	return out
}

// BadgeCount is the number the app icon shows: doses still due today.
func BadgeCount(meds []domain.Medication, logs []domain.DoseLog, today domain.Day) int {
	return core.RemainingDosesToday(meds, logs, today)
}

// Dispatch sends every planned notification plus the badge count to the
// sink, stopping at the first delivery error.
func Dispatch(sink Sink, plan []Notification, badge int) error {
	for _, n := range plan {
		if err := sink.Deliver(n); err != nil {
			return fmt.Errorf("deliver %s notification: %w", n.Kind, err)
		}
	}
	if err := sink.SetBadge(badge); err != nil {
		return fmt.Errorf("set badge: %w", err)
	}
	return nil
}

func displayName(med domain.Medication) string {
	if med.Nickname != "" {
		return med.Nickname
	}
	return med.Name
}
