package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"medcabinet/internal/infra/persistence/memory"
	"medcabinet/pkg/domain"
)

// Service exposes higher-level transactional operations over the medication
// store, instrumented with logging, metrics, tracing, and audit recording.
type Service struct {
	store   domain.PersistentStore
	logger  Logger
	metrics MetricsRecorder
	tracer  Tracer
	audit   AuditRecorder
	nowFn   func() time.Time
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		logger: NewNoopLogger(),
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService creates a service with an in-memory store and the given
// rules engine.
func NewInMemoryService(engine *RulesEngine, opts ...ServiceOption) *Service {
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// Today returns the current calendar day according to the service clock.
func (s *Service) Today() Day {
	return domain.DayOf(s.nowFn())
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// run executes fn inside one store transaction with full instrumentation.
// fn returns the primary entity id the operation touched.
func (s *Service) run(ctx context.Context, op string, entity EntityType, fn func(tx domain.Transaction) (string, error)) (Result, error) {
	started := time.Now()
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, op)
	}

	var entityID string
	res, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		id, ferr := fn(tx)
		if id != "" {
			entityID = id
		}
		return ferr
	})

	duration := time.Since(started)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, op, err == nil, duration)
	}
	if s.audit != nil {
		entry := AuditEntry{
			Operation:  op,
			Entity:     entity,
			EntityID:   entityID,
			Status:     AuditStatusSuccess,
			Violations: res.Violations,
			At:         s.nowFn(),
		}
		if err != nil {
			entry.Status = AuditStatusError
			entry.Error = err.Error()
		}
		s.audit.Record(ctx, entry)
	}
	if err != nil {
		s.logger.Error("operation failed", "operation", op, "entity_id", entityID, "error", err)
		return res, err
	}
	for _, v := range res.Warnings() {
		s.logger.Warn("rule violation", "operation", op, "rule", v.Rule, "severity", string(v.Severity), "message", v.Message)
	}
	s.logger.Info("operation complete", "operation", op, "entity_id", entityID, "duration_ms", duration.Milliseconds())
	return res, nil
}

// AddMedication persists a new medication record.
func (s *Service) AddMedication(ctx context.Context, med Medication) (Medication, Result, error) {
	var created Medication
	res, err := s.run(ctx, "add_medication", EntityMedication, func(tx domain.Transaction) (string, error) {
		for i := range med.Schedule {
			if med.Schedule[i].ID == "" {
				med.Schedule[i].ID = newID()
			}
		}
		var err error
		created, err = tx.CreateMedication(med)
		return created.ID, err
	})
	return created, res, err
}

// UpdateMedication mutates a medication using the provided mutator.
func (s *Service) UpdateMedication(ctx context.Context, id string, mutator func(*Medication) error) (Medication, Result, error) {
	var updated Medication
	res, err := s.run(ctx, "update_medication", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(id); !ok {
			return id, ErrNotFound{Entity: EntityMedication, ID: id}
		}
		var err error
		updated, err = tx.UpdateMedication(id, mutator)
		return id, err
	})
	return updated, res, err
}

// AdjustInventory applies a manual stock correction, clamped at zero.
func (s *Service) AdjustInventory(ctx context.Context, id string, delta float64) (Medication, Result, error) {
	var updated Medication
	res, err := s.run(ctx, "adjust_inventory", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(id); !ok {
			return id, ErrNotFound{Entity: EntityMedication, ID: id}
		}
		var err error
		updated, err = tx.UpdateMedication(id, func(m *Medication) error {
			m.CurrentInventory += delta
			if m.CurrentInventory < 0 {
				m.CurrentInventory = 0
			}
			return nil
		})
		return id, err
	})
	return updated, res, err
}

// ToggleDose flips the taken state for one (medication, day, time block)
// tuple. Taking creates the log and debits inventory by the block's dose,
// clamped at zero; untaking removes the log and credits the dose back. Both
// sides of the flip commit in one transaction so a log can never exist
// without its matching inventory movement. The returned bool is the new
// taken state.
func (s *Service) ToggleDose(ctx context.Context, medicationID string, block TimeBlockID, date Day) (bool, Result, error) {
	taken := false
	res, err := s.run(ctx, "toggle_dose", EntityDoseLog, func(tx domain.Transaction) (string, error) {
		med, ok := tx.FindMedication(medicationID)
		if !ok {
			return medicationID, ErrNotFound{Entity: EntityMedication, ID: medicationID}
		}
		// Blocks removed from the schedule still toggle their historical
		// logs; they just carry no inventory movement.
		var dose float64
		if sb, ok := med.FindScheduleBlock(block); ok {
			dose = sb.Dose
		}

		if existing, ok := tx.FindDoseLog(medicationID, date, block); ok {
			if err := tx.DeleteDoseLog(existing.ID); err != nil {
				return medicationID, err
			}
			_, err := tx.UpdateMedication(medicationID, func(m *Medication) error {
				m.CurrentInventory += dose
				return nil
			})
			taken = false
			return existing.ID, err
		}

		log, err := tx.CreateDoseLog(DoseLog{
			MedicationID:  medicationID,
			ScheduledDate: date,
			TimeBlock:     block,
			Taken:         true,
			Timestamp:     s.nowFn(),
		})
		if err != nil {
			return medicationID, err
		}
		if _, err := tx.UpdateMedication(medicationID, func(m *Medication) error {
			m.CurrentInventory -= dose
			if m.CurrentInventory < 0 {
				m.CurrentInventory = 0
			}
			return nil
		}); err != nil {
			return log.ID, err
		}
		taken = true
		return log.ID, nil
	})
	return taken, res, err
}

// SetDoseTaken drives the taken state to an explicit value. Unlike
// ToggleDose it is idempotent: setting an already-taken dose taken again is a
// no-op, as is clearing an absent log, so repeated calls never double-move
// inventory.
func (s *Service) SetDoseTaken(ctx context.Context, medicationID string, block TimeBlockID, date Day, taken bool) (Result, error) {
	return s.run(ctx, "set_dose_taken", EntityDoseLog, func(tx domain.Transaction) (string, error) {
		med, ok := tx.FindMedication(medicationID)
		if !ok {
			return medicationID, ErrNotFound{Entity: EntityMedication, ID: medicationID}
		}
		var dose float64
		if sb, ok := med.FindScheduleBlock(block); ok {
			dose = sb.Dose
		}

		existing, exists := tx.FindDoseLog(medicationID, date, block)
		if taken == exists {
			return medicationID, nil
		}
		if taken {
			log, err := tx.CreateDoseLog(DoseLog{
				MedicationID:  medicationID,
				ScheduledDate: date,
				TimeBlock:     block,
				Taken:         true,
				Timestamp:     s.nowFn(),
			})
			if err != nil {
				return medicationID, err
			}
			_, err = tx.UpdateMedication(medicationID, func(m *Medication) error {
				m.CurrentInventory -= dose
				if m.CurrentInventory < 0 {
					m.CurrentInventory = 0
				}
				return nil
			})
			return log.ID, err
		}
		if err := tx.DeleteDoseLog(existing.ID); err != nil {
			return medicationID, err
		}
		_, err := tx.UpdateMedication(medicationID, func(m *Medication) error {
			m.CurrentInventory += dose
			return nil
		})
		return existing.ID, err
	})
}

// RecordRefillPickup adds the picked-up amount to inventory, updates the
// remaining-refill count when one is supplied (Unknown leaves it untouched),
// stamps the pickup, clears any pending expected-refill alert, and appends to
// the refill history.
func (s *Service) RecordRefillPickup(ctx context.Context, medicationID string, amount float64, refills Refills) (Medication, Result, error) {
	var updated Medication
	res, err := s.run(ctx, "record_refill_pickup", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(medicationID); !ok {
			return medicationID, ErrNotFound{Entity: EntityMedication, ID: medicationID}
		}
		now := s.nowFn()
		var err error
		updated, err = tx.UpdateMedication(medicationID, func(m *Medication) error {
			m.CurrentInventory += amount
			if refills.IsKnown() {
				m.RefillsRemaining = refills
			}
			m.LastRefilled = &now
			m.RefillExpectedDate = nil
			m.RefillAlertEnabled = false
			m.RefillHistory = append(m.RefillHistory, RefillEvent{
				ID:     newID(),
				Date:   domain.DayOf(now),
				Amount: amount,
			})
			return nil
		})
		return medicationID, err
	})
	return updated, res, err
}

// ScheduleRefillOrder records when an ordered refill is expected and whether
// to alert on that day. Inventory is untouched until pickup.
func (s *Service) ScheduleRefillOrder(ctx context.Context, medicationID string, expected Day, alertEnabled bool, alertTime string) (Medication, Result, error) {
	var updated Medication
	res, err := s.run(ctx, "schedule_refill_order", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(medicationID); !ok {
			return medicationID, ErrNotFound{Entity: EntityMedication, ID: medicationID}
		}
		if alertTime == "" {
			alertTime = "10:00"
		}
		var err error
		updated, err = tx.UpdateMedication(medicationID, func(m *Medication) error {
			d := expected
			m.RefillExpectedDate = &d
			m.RefillAlertEnabled = alertEnabled
			m.RefillAlertTime = alertTime
			return nil
		})
		return medicationID, err
	})
	return updated, res, err
}

// StopMedication archives a medication. History stays visible; days after
// the stop date classify as none.
func (s *Service) StopMedication(ctx context.Context, id string) (Medication, Result, error) {
	var updated Medication
	res, err := s.run(ctx, "stop_medication", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(id); !ok {
			return id, ErrNotFound{Entity: EntityMedication, ID: id}
		}
		today := s.Today()
		var err error
		updated, err = tx.UpdateMedication(id, func(m *Medication) error {
			m.Status = domain.MedicationStopped
			m.DateStopped = &today
			return nil
		})
		return id, err
	})
	return updated, res, err
}

// RestoreMedication reactivates a stopped medication without altering its
// historical logs.
func (s *Service) RestoreMedication(ctx context.Context, id string) (Medication, Result, error) {
	var updated Medication
	res, err := s.run(ctx, "restore_medication", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(id); !ok {
			return id, ErrNotFound{Entity: EntityMedication, ID: id}
		}
		var err error
		updated, err = tx.UpdateMedication(id, func(m *Medication) error {
			m.Status = domain.MedicationActive
			m.DateStopped = nil
			return nil
		})
		return id, err
	})
	return updated, res, err
}

// PermanentlyDeleteMedication removes the medication and all of its dose
// logs. Unlike StopMedication this is irreversible.
func (s *Service) PermanentlyDeleteMedication(ctx context.Context, id string) (Result, error) {
	return s.run(ctx, "delete_medication", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(id); !ok {
			return id, ErrNotFound{Entity: EntityMedication, ID: id}
		}
		tx.DeleteDoseLogsForMedication(id)
		return id, tx.DeleteMedication(id)
	})
}

// AddScheduleBlock appends a dose slot to the medication's schedule. The
// one-block-per-time-block invariant is enforced by the schedule conflict
// rule at commit.
func (s *Service) AddScheduleBlock(ctx context.Context, medicationID string, block ScheduleBlock) (Medication, Result, error) {
	var updated Medication
	res, err := s.run(ctx, "add_schedule_block", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(medicationID); !ok {
			return medicationID, ErrNotFound{Entity: EntityMedication, ID: medicationID}
		}
		if block.ID == "" {
			block.ID = newID()
		}
		var err error
		updated, err = tx.UpdateMedication(medicationID, func(m *Medication) error {
			m.Schedule = append(m.Schedule, block)
			return nil
		})
		return medicationID, err
	})
	return updated, res, err
}

// UpdateScheduleBlock mutates one schedule block in place.
func (s *Service) UpdateScheduleBlock(ctx context.Context, medicationID, blockID string, mutator func(*ScheduleBlock) error) (Medication, Result, error) {
	var updated Medication
	res, err := s.run(ctx, "update_schedule_block", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(medicationID); !ok {
			return medicationID, ErrNotFound{Entity: EntityMedication, ID: medicationID}
		}
		var err error
		updated, err = tx.UpdateMedication(medicationID, func(m *Medication) error {
			for i := range m.Schedule {
				if m.Schedule[i].ID == blockID {
					if err := mutator(&m.Schedule[i]); err != nil {
						return err
					}
					m.Schedule[i].ID = blockID
					return nil
				}
			}
			return ErrNotFound{Entity: EntityMedication, ID: blockID}
		})
		return medicationID, err
	})
	return updated, res, err
}

// RemoveScheduleBlock drops a dose slot. Historical logs referencing the
// block stay in place for display.
func (s *Service) RemoveScheduleBlock(ctx context.Context, medicationID, blockID string) (Medication, Result, error) {
	var updated Medication
	res, err := s.run(ctx, "remove_schedule_block", EntityMedication, func(tx domain.Transaction) (string, error) {
		if _, ok := tx.FindMedication(medicationID); !ok {
			return medicationID, ErrNotFound{Entity: EntityMedication, ID: medicationID}
		}
		var err error
		updated, err = tx.UpdateMedication(medicationID, func(m *Medication) error {
			kept := m.Schedule[:0]
			found := false
			for _, b := range m.Schedule {
				if b.ID == blockID {
					found = true
					continue
				}
				kept = append(kept, b)
			}
			if !found {
				return ErrNotFound{Entity: EntityMedication, ID: blockID}
			}
			m.Schedule = kept
			return nil
		})
		return medicationID, err
	})
	return updated, res, err
}

// UpdateSettings mutates the singleton settings record.
func (s *Service) UpdateSettings(ctx context.Context, mutator func(*AppSettings) error) (AppSettings, Result, error) {
	var updated AppSettings
	res, err := s.run(ctx, "update_settings", EntitySettings, func(tx domain.Transaction) (string, error) {
		var err error
		updated, err = tx.UpdateSettings(mutator)
		return "", err
	})
	return updated, res, err
}

// Medication returns one medication by id.
func (s *Service) Medication(id string) (Medication, error) {
	med, ok := s.store.GetMedication(id)
	if !ok {
		return Medication{}, ErrNotFound{Entity: EntityMedication, ID: id}
	}
	return med, nil
}

// Medications returns every medication.
func (s *Service) Medications() []Medication {
	return s.store.ListMedications()
}

// Settings returns the current application settings.
func (s *Service) Settings() AppSettings {
	return s.store.Settings()
}

// TasksForDay builds the task list for a calendar day.
func (s *Service) TasksForDay(date Day) []Task {
	return TasksForDay(s.store.ListMedications(), s.store.ListDoseLogs(), date, s.Today())
}

// DayStatus classifies a calendar day across all medications.
func (s *Service) DayStatus(date Day) DoseStatus {
	return DayStatus(s.store.ListMedications(), s.store.ListDoseLogs(), date, s.Today())
}

// MedicationDayStatus classifies one medication on one calendar day.
func (s *Service) MedicationDayStatus(id string, date Day) (DoseStatus, error) {
	med, ok := s.store.GetMedication(id)
	if !ok {
		return StatusNone, ErrNotFound{Entity: EntityMedication, ID: id}
	}
	return MedicationDayStatus(med, s.store.ListDoseLogsForMedication(id), date, s.Today()), nil
}

// Adherence returns the trailing-window adherence percentage for one
// medication.
func (s *Service) Adherence(id string) (int, error) {
	med, ok := s.store.GetMedication(id)
	if !ok {
		return 0, ErrNotFound{Entity: EntityMedication, ID: id}
	}
	return Adherence(med, s.store.ListDoseLogsForMedication(id), s.Today()), nil
}

// RemainingDosesToday returns today's badge count.
func (s *Service) RemainingDosesToday() int {
	return RemainingDosesToday(s.store.ListMedications(), s.store.ListDoseLogs(), s.Today())
}

// LowStockMedications returns the active medications needing a refill order.
func (s *Service) LowStockMedications() []Medication {
	return LowStock(s.store.ListMedications())
}
