// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"medcabinet/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Medication aliases domain.Medication for in-memory persistence operations.
	Medication = domain.Medication
	// DoseLog aliases domain.DoseLog.
	DoseLog = domain.DoseLog
	// AppSettings aliases domain.AppSettings.
	AppSettings = domain.AppSettings
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
	// PersistentStore aliases domain.PersistentStore abstraction.
	PersistentStore = domain.PersistentStore
)

type memoryState struct {
	medications map[string]Medication
	doseLogs    map[string]DoseLog
	settings    AppSettings
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Medications map[string]Medication `json:"medications"`
	DoseLogs    map[string]DoseLog    `json:"dose_logs"`
	Settings    AppSettings           `json:"settings"`
}

func newMemoryState() memoryState {
	return memoryState{
		medications: make(map[string]Medication),
		doseLogs:    make(map[string]DoseLog),
		settings:    domain.DefaultSettings(),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Medications: make(map[string]Medication, len(state.medications)),
		DoseLogs:    make(map[string]DoseLog, len(state.doseLogs)),
		Settings:    state.settings,
	}
	for k, v := range state.medications {
		s.Medications[k] = cloneMedication(v)
	}
	for k, v := range state.doseLogs {
		s.DoseLogs[k] = cloneDoseLog(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Medications {
		state.medications[k] = cloneMedication(v)
	}
	for k, v := range s.DoseLogs {
		state.doseLogs[k] = cloneDoseLog(v)
	}
	state.settings = s.Settings
	return state
}

// migrateSnapshot normalizes snapshots read back from durable storage: nil
// maps become empty, logs whose medication vanished are dropped, and blank
// alert times fall back to defaults.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Medications == nil {
		snapshot.Medications = map[string]Medication{}
	}
	if snapshot.DoseLogs == nil {
		snapshot.DoseLogs = map[string]DoseLog{}
	}

	medicationExists := func(id string) bool {
		_, ok := snapshot.Medications[id]
		return ok
	}

	for id, log := range snapshot.DoseLogs {
		if log.MedicationID == "" || !medicationExists(log.MedicationID) {
			delete(snapshot.DoseLogs, id)
		}
	}

	for id, med := range snapshot.Medications {
		if med.Status == "" {
			med.Status = domain.MedicationActive
		}
		if med.CurrentInventory < 0 {
			med.CurrentInventory = 0
		}
		if med.RefillAlertEnabled && med.RefillAlertTime == "" {
			med.RefillAlertTime = "10:00"
		}
		snapshot.Medications[id] = med
	}

	if snapshot.Settings.DailySummaryTime == "" {
		snapshot.Settings.DailySummaryTime = domain.DefaultSettings().DailySummaryTime
	}
	return snapshot
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.medications {
		cloned.medications[k] = cloneMedication(v)
	}
	for k, v := range s.doseLogs {
		cloned.doseLogs[k] = cloneDoseLog(v)
	}
	cloned.settings = s.settings
	return cloned
}

func cloneMedication(m Medication) Medication {
	cp := m
	cp.Schedule = append([]domain.ScheduleBlock(nil), m.Schedule...)
	cp.RefillHistory = append([]domain.RefillEvent(nil), m.RefillHistory...)
	if m.LastRefilled != nil {
		t := *m.LastRefilled
		cp.LastRefilled = &t
	}
	if m.RefillExpectedDate != nil {
		d := *m.RefillExpectedDate
		cp.RefillExpectedDate = &d
	}
	if m.DateStopped != nil {
		d := *m.DateStopped
		cp.DateStopped = &d
	}
	return cp
}

func cloneDoseLog(l DoseLog) DoseLog { return l }

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc overrides the time provider. Tests use it to pin transaction
// timestamps.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		fn = func() time.Time { return time.Now().UTC() }
	}
	s.nowFn = fn
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListMedications returns all medications within the transaction snapshot.
func (v transactionView) ListMedications() []Medication {
	out := make([]Medication, 0, len(v.state.medications))
	for _, m := range v.state.medications {
		out = append(out, cloneMedication(m))
	}
	return out
}

// ListDoseLogs returns all dose logs within the transaction snapshot.
func (v transactionView) ListDoseLogs() []DoseLog {
	out := make([]DoseLog, 0, len(v.state.doseLogs))
	for _, l := range v.state.doseLogs {
		out = append(out, cloneDoseLog(l))
	}
	return out
}

// FindMedication retrieves a medication by ID from the snapshot.
func (v transactionView) FindMedication(id string) (Medication, bool) {
	m, ok := v.state.medications[id]
	if !ok {
		return Medication{}, false
	}
	return cloneMedication(m), true
}

// Settings returns the settings record in the snapshot.
func (v transactionView) Settings() AppSettings {
	return v.state.settings
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindMedication exposes medication lookup within the transaction scope.
func (tx *transaction) FindMedication(id string) (Medication, bool) {
	m, ok := tx.state.medications[id]
	if !ok {
		return Medication{}, false
	}
	return cloneMedication(m), true
}

// FindDoseLog resolves a log by its logical key (medication, day, time block).
func (tx *transaction) FindDoseLog(medicationID string, date domain.Day, block domain.TimeBlockID) (DoseLog, bool) {
	for _, log := range tx.state.doseLogs {
		if log.MedicationID == medicationID && log.ScheduledDate == date && log.TimeBlock == block {
			return cloneDoseLog(log), true
		}
	}
	return DoseLog{}, false
}

// CreateMedication stores a new medication within the transaction.
func (tx *transaction) CreateMedication(m Medication) (Medication, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.medications[m.ID]; exists {
		return Medication{}, fmt.Errorf("medication %q already exists", m.ID)
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	if m.Status == "" {
		m.Status = domain.MedicationActive
	}
	if m.DateAdded.IsZero() {
		m.DateAdded = domain.DayOf(tx.now)
	}
	if m.CurrentInventory < 0 {
		m.CurrentInventory = 0
	}
	tx.state.medications[m.ID] = cloneMedication(m)
	tx.recordChange(Change{Entity: domain.EntityMedication, Action: domain.ActionCreate, After: cloneMedication(m)})
	return cloneMedication(m), nil
}

// UpdateMedication mutates a medication using the provided mutator function.
func (tx *transaction) UpdateMedication(id string, mutator func(*Medication) error) (Medication, error) {
	current, ok := tx.state.medications[id]
	if !ok {
		return Medication{}, fmt.Errorf("medication %q not found", id)
	}
	before := cloneMedication(current)
	if err := mutator(&current); err != nil {
		return Medication{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	if current.CurrentInventory < 0 {
		current.CurrentInventory = 0
	}
	tx.state.medications[id] = cloneMedication(current)
	tx.recordChange(Change{Entity: domain.EntityMedication, Action: domain.ActionUpdate, Before: before, After: cloneMedication(current)})
	return cloneMedication(current), nil
}

// DeleteMedication removes a medication from the transaction state. Dose logs
// are left in place; callers that want a cascade use
// DeleteDoseLogsForMedication first.
func (tx *transaction) DeleteMedication(id string) error {
	current, ok := tx.state.medications[id]
	if !ok {
		return fmt.Errorf("medication %q not found", id)
	}
	delete(tx.state.medications, id)
	tx.recordChange(Change{Entity: domain.EntityMedication, Action: domain.ActionDelete, Before: cloneMedication(current)})
	return nil
}

// CreateDoseLog stores a new dose log. The logical key (medication, day,
// block) must not already be present.
func (tx *transaction) CreateDoseLog(l DoseLog) (DoseLog, error) {
	if l.ID == "" {
		l.ID = tx.store.newID()
	}
	if _, exists := tx.state.doseLogs[l.ID]; exists {
		return DoseLog{}, fmt.Errorf("dose log %q already exists", l.ID)
	}
	if _, ok := tx.state.medications[l.MedicationID]; !ok {
		return DoseLog{}, fmt.Errorf("medication %q not found", l.MedicationID)
	}
	if existing, ok := tx.FindDoseLog(l.MedicationID, l.ScheduledDate, l.TimeBlock); ok {
		return DoseLog{}, fmt.Errorf("dose log for medication %q on %s at %s already exists as %q", l.MedicationID, l.ScheduledDate, l.TimeBlock, existing.ID)
	}
	l.CreatedAt = tx.now
	l.UpdatedAt = tx.now
	if l.Timestamp.IsZero() {
		l.Timestamp = tx.now
	}
	tx.state.doseLogs[l.ID] = cloneDoseLog(l)
	tx.recordChange(Change{Entity: domain.EntityDoseLog, Action: domain.ActionCreate, After: cloneDoseLog(l)})
	return cloneDoseLog(l), nil
}

// DeleteDoseLog removes a dose log by ID.
func (tx *transaction) DeleteDoseLog(id string) error {
	current, ok := tx.state.doseLogs[id]
	if !ok {
		return fmt.Errorf("dose log %q not found", id)
	}
	delete(tx.state.doseLogs, id)
	tx.recordChange(Change{Entity: domain.EntityDoseLog, Action: domain.ActionDelete, Before: cloneDoseLog(current)})
	return nil
}

// DeleteDoseLogsForMedication removes every log belonging to the medication
// and returns the number removed.
func (tx *transaction) DeleteDoseLogsForMedication(medicationID string) int {
	removed := 0
	for id, log := range tx.state.doseLogs {
		if log.MedicationID != medicationID {
			continue
		}
		delete(tx.state.doseLogs, id)
		tx.recordChange(Change{Entity: domain.EntityDoseLog, Action: domain.ActionDelete, Before: cloneDoseLog(log)})
		removed++
	}
	return removed
}

// UpdateSettings mutates the singleton settings record.
func (tx *transaction) UpdateSettings(mutator func(*AppSettings) error) (AppSettings, error) {
	current := tx.state.settings
	before := current
	if err := mutator(&current); err != nil {
		return AppSettings{}, err
	}
	tx.state.settings = current
	tx.recordChange(Change{Entity: domain.EntitySettings, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// GetMedication retrieves a medication by ID.
func (s *Store) GetMedication(id string) (Medication, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.medications[id]
	if !ok {
		return Medication{}, false
	}
	return cloneMedication(m), true
}

// ListMedications returns all medications.
func (s *Store) ListMedications() []Medication {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Medication, 0, len(s.state.medications))
	for _, m := range s.state.medications {
		out = append(out, cloneMedication(m))
	}
	return out
}

// ListDoseLogs returns all dose logs.
func (s *Store) ListDoseLogs() []DoseLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DoseLog, 0, len(s.state.doseLogs))
	for _, l := range s.state.doseLogs {
		out = append(out, cloneDoseLog(l))
	}
	return out
}

// ListDoseLogsForMedication returns the logs belonging to one medication.
func (s *Store) ListDoseLogsForMedication(medicationID string) []DoseLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []DoseLog
	for _, l := range s.state.doseLogs {
		if l.MedicationID == medicationID {
			out = append(out, cloneDoseLog(l))
		}
	}
	return out
}

// Settings returns the current settings record.
func (s *Store) Settings() AppSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.settings
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }
