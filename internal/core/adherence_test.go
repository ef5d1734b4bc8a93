package core

import (
	"testing"
	"time"

	"medcabinet/pkg/domain"
)

func TestAdherenceFullWindow(t *testing.T) {
	med := dailyMed("full", 1, 90)
	var logs []domain.DoseLog
	for i := 0; i < 30; i++ {
		logs = append(logs, takenLog(med, testToday.AddDays(-i), domain.TimeBlockMorning))
	}
	if got := Adherence(med, logs, testToday); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
}

func TestAdherencePartialWindowRounds(t *testing.T) {
	med := dailyMed("partial", 1, 90)
	var logs []domain.DoseLog
	for i := 0; i < 10; i++ {
		logs = append(logs, takenLog(med, testToday.AddDays(-i), domain.TimeBlockMorning))
	}
	// 10 of 30 scheduled days taken: round(33.33) = 33.
	if got := Adherence(med, logs, testToday); got != 33 {
		t.Fatalf("expected 33, got %d", got)
	}
}

func TestAdherenceBoundedByDateAdded(t *testing.T) {
	med := dailyMed("new", 1, 90)
	med.DateAdded = testToday.AddDays(-4) // 5 scheduled days in window
	logs := []domain.DoseLog{
		takenLog(med, testToday, domain.TimeBlockMorning),
		takenLog(med, testToday.AddDays(-1), domain.TimeBlockMorning),
		takenLog(med, testToday.AddDays(-2), domain.TimeBlockMorning),
		takenLog(med, testToday.AddDays(-3), domain.TimeBlockMorning),
	}
	// 4 of 5: 80.
	if got := Adherence(med, logs, testToday); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
}

func TestAdherenceNoScheduleIsPerfect(t *testing.T) {
	med := domain.Medication{
		Base:      domain.Base{ID: "med-none"},
		Name:      "none",
		Status:    domain.MedicationActive,
		DateAdded: "2026-01-01",
	}
	if got := Adherence(med, nil, testToday); got != 100 {
		t.Fatalf("expected 100 with nothing scheduled, got %d", got)
	}

	added := dailyMed("future", 1, 10)
	added.DateAdded = testToday.AddDays(1)
	if got := Adherence(added, nil, testToday); got != 100 {
		t.Fatalf("expected 100 before the add date, got %d", got)
	}
}

func TestAdherenceZeroForNonActive(t *testing.T) {
	med := dailyMed("stopped", 1, 90)
	med.Status = domain.MedicationStopped
	stopped := testToday.AddDays(-1)
	med.DateStopped = &stopped
	logs := []domain.DoseLog{takenLog(med, testToday.AddDays(-2), domain.TimeBlockMorning)}
	if got := Adherence(med, logs, testToday); got != 0 {
		t.Fatalf("expected 0 for stopped medication, got %d", got)
	}

	paused := dailyMed("paused", 1, 90)
	paused.Status = domain.MedicationPaused
	if got := Adherence(paused, nil, testToday); got != 0 {
		t.Fatalf("expected 0 for paused medication, got %d", got)
	}
}

func TestRecentLogsOrderAndLimit(t *testing.T) {
	med := dailyMed("recent", 1, 90)
	base := time.Date(2026, 8, 15, 8, 0, 0, 0, time.UTC)
	var logs []domain.DoseLog
	for i := 0; i < 8; i++ {
		log := takenLog(med, testToday.AddDays(-i), domain.TimeBlockMorning)
		log.Timestamp = base.Add(-time.Duration(i) * 24 * time.Hour)
		logs = append(logs, log)
	}
	// Unrelated medication's log must not appear.
	other := dailyMed("other", 1, 10)
	logs = append(logs, takenLog(other, testToday, domain.TimeBlockMorning))

	recent := RecentLogs(med, logs, 5)
	if len(recent) != 5 {
		t.Fatalf("expected 5 logs, got %d", len(recent))
	}
	for i := 1; i < len(recent); i++ {
		if recent[i].Timestamp.After(recent[i-1].Timestamp) {
			t.Fatalf("expected newest-first ordering")
		}
	}
	for _, log := range recent {
		if log.MedicationID != med.ID {
			t.Fatalf("unexpected medication in recent logs: %s", log.MedicationID)
		}
	}
}
