package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"medcabinet/pkg/domain"
)

func seedMedication(t *testing.T, store *Store, med Medication) Medication {
	t.Helper()
	var created Medication
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateMedication(med)
		return err
	}); err != nil {
		t.Fatalf("seed medication: %v", err)
	}
	return created
}

func TestStoreMedicationCRUD(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	ctx := context.Background()

	med := seedMedication(t, store, Medication{
		Name:             "Lisinopril",
		Strength:         "10 mg",
		Form:             "tablet",
		Frequency:        domain.FrequencyDaily,
		AnchorType:       domain.AnchorTime,
		Schedule:         []domain.ScheduleBlock{{ID: "sb-1", TimeBlock: domain.TimeBlockMorning, Dose: 1}},
		CurrentInventory: 30,
		RefillThreshold:  7,
		DateAdded:        "2026-08-01",
	})
	if med.ID == "" {
		t.Fatalf("expected generated id")
	}
	if med.Status != domain.MedicationActive {
		t.Fatalf("expected default active status, got %q", med.Status)
	}
	if med.CreatedAt.IsZero() || med.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateMedication(med.ID, func(m *Medication) error {
			m.CurrentInventory = 25
			m.Notes = "with food"
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update medication: %v", err)
	}
	got, ok := store.GetMedication(med.ID)
	if !ok {
		t.Fatalf("expected medication to exist")
	}
	if got.CurrentInventory != 25 || got.Notes != "with food" {
		t.Fatalf("unexpected medication after update: %+v", got)
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.UpdateMedication("missing", func(m *Medication) error { return nil })
		return err
	}); err == nil {
		t.Fatalf("expected update of missing medication to fail")
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		return tx.DeleteMedication(med.ID)
	}); err != nil {
		t.Fatalf("delete medication: %v", err)
	}
	if _, ok := store.GetMedication(med.ID); ok {
		t.Fatalf("expected medication to be gone")
	}
}

func TestStoreDoseLogUniquePerKey(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	ctx := context.Background()
	med := seedMedication(t, store, Medication{Name: "Metformin", DateAdded: "2026-08-01"})

	log := DoseLog{MedicationID: med.ID, ScheduledDate: "2026-08-10", TimeBlock: domain.TimeBlockDinner, Taken: true}
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.CreateDoseLog(log)
		return err
	}); err != nil {
		t.Fatalf("create dose log: %v", err)
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.CreateDoseLog(log)
		return err
	}); err == nil {
		t.Fatalf("expected duplicate (medication, day, block) to be rejected")
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.CreateDoseLog(DoseLog{MedicationID: "missing", ScheduledDate: "2026-08-10", TimeBlock: domain.TimeBlockDinner})
		return err
	}); err == nil {
		t.Fatalf("expected dose log for missing medication to be rejected")
	}
}

func TestStoreDeleteDoseLogsForMedication(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	ctx := context.Background()
	medA := seedMedication(t, store, Medication{Name: "A", DateAdded: "2026-08-01"})
	medB := seedMedication(t, store, Medication{Name: "B", DateAdded: "2026-08-01"})

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		for _, day := range []domain.Day{"2026-08-10", "2026-08-11"} {
			if _, err := tx.CreateDoseLog(DoseLog{MedicationID: medA.ID, ScheduledDate: day, TimeBlock: domain.TimeBlockMorning, Taken: true}); err != nil {
				return err
			}
		}
		_, err := tx.CreateDoseLog(DoseLog{MedicationID: medB.ID, ScheduledDate: "2026-08-10", TimeBlock: domain.TimeBlockMorning, Taken: true})
		return err
	}); err != nil {
		t.Fatalf("seed logs: %v", err)
	}

	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if removed := tx.DeleteDoseLogsForMedication(medA.ID); removed != 2 {
			return errors.New("expected two logs removed")
		}
		return tx.DeleteMedication(medA.ID)
	}); err != nil {
		t.Fatalf("cascade delete: %v", err)
	}

	if logs := store.ListDoseLogsForMedication(medA.ID); len(logs) != 0 {
		t.Fatalf("expected no logs for deleted medication, got %d", len(logs))
	}
	if logs := store.ListDoseLogsForMedication(medB.ID); len(logs) != 1 {
		t.Fatalf("expected unrelated log to survive, got %d", len(logs))
	}
}

func TestStoreTransactionRollbackOnError(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	ctx := context.Background()
	med := seedMedication(t, store, Medication{Name: "Atorvastatin", CurrentInventory: 30, DateAdded: "2026-08-01"})

	boom := errors.New("boom")
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.UpdateMedication(med.ID, func(m *Medication) error {
			m.CurrentInventory = 0
			return nil
		}); err != nil {
			return err
		}
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected fn error to surface, got %v", err)
	}

	got, _ := store.GetMedication(med.ID)
	if got.CurrentInventory != 30 {
		t.Fatalf("expected rollback to preserve inventory, got %v", got.CurrentInventory)
	}
}

type blockAllRule struct{}

func (blockAllRule) Name() string { return "block_all" }

func (blockAllRule) Evaluate(_ context.Context, _ domain.RuleView, _ []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{
		Rule:     "block_all",
		Severity: domain.SeverityBlock,
		Message:  "blocked",
	}}}, nil
}

func TestStoreBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockAllRule{})
	store := NewStore(engine)

	res, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateMedication(Medication{Name: "Blocked"})
		return err
	})
	var rve domain.RuleViolationError
	if !errors.As(err, &rve) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result, got %+v", res)
	}
	if meds := store.ListMedications(); len(meds) != 0 {
		t.Fatalf("expected no committed medications, got %d", len(meds))
	}
}

func TestStoreSettingsUpdate(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	if got := store.Settings(); got != domain.DefaultSettings() {
		t.Fatalf("expected default settings, got %+v", got)
	}

	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.UpdateSettings(func(s *AppSettings) error {
			s.DailySummaryEnabled = true
			s.DailySummaryTime = "08:30"
			return nil
		})
		return err
	}); err != nil {
		t.Fatalf("update settings: %v", err)
	}
	got := store.Settings()
	if !got.DailySummaryEnabled || got.DailySummaryTime != "08:30" {
		t.Fatalf("unexpected settings: %+v", got)
	}
}

func TestSnapshotRoundTripAndMigration(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	store.SetNowFunc(func() time.Time { return time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC) })
	med := seedMedication(t, store, Medication{
		Name:             "Sertraline",
		Schedule:         []domain.ScheduleBlock{{ID: "sb-1", TimeBlock: domain.TimeBlockBreakfast, Dose: 1}},
		CurrentInventory: 14,
		RefillsRemaining: domain.RefillsCount(2),
		DateAdded:        "2026-08-01",
	})
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateDoseLog(DoseLog{MedicationID: med.ID, ScheduledDate: "2026-08-15", TimeBlock: domain.TimeBlockBreakfast, Taken: true})
		return err
	}); err != nil {
		t.Fatalf("seed log: %v", err)
	}

	snapshot := store.ExportState()
	snapshot.DoseLogs["orphan"] = DoseLog{
		Base:          domain.Base{ID: "orphan"},
		MedicationID:  "gone",
		ScheduledDate: "2026-08-14",
		TimeBlock:     domain.TimeBlockDinner,
		Taken:         true,
	}

	restored := NewStore(domain.NewRulesEngine())
	restored.ImportState(snapshot)

	if got, ok := restored.GetMedication(med.ID); !ok || got.Name != "Sertraline" {
		t.Fatalf("expected medication to survive round trip, got %+v ok=%v", got, ok)
	}
	if logs := restored.ListDoseLogs(); len(logs) != 1 {
		t.Fatalf("expected orphaned log to be dropped, got %d logs", len(logs))
	}

	// Empty snapshots normalize rather than panic.
	fresh := NewStore(domain.NewRulesEngine())
	fresh.ImportState(Snapshot{})
	if fresh.Settings().DailySummaryTime == "" {
		t.Fatalf("expected migrated default summary time")
	}
}

func TestViewSeesIsolatedSnapshot(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	med := seedMedication(t, store, Medication{Name: "Omeprazole", CurrentInventory: 10, DateAdded: "2026-08-01"})

	if err := store.View(context.Background(), func(view TransactionView) error {
		m, ok := view.FindMedication(med.ID)
		if !ok {
			t.Fatalf("expected medication in view")
		}
		m.CurrentInventory = 999
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}

	got, _ := store.GetMedication(med.ID)
	if got.CurrentInventory != 10 {
		t.Fatalf("expected view mutation to be invisible, got %v", got.CurrentInventory)
	}
}
