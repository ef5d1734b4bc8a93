package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateMedication(Medication) (Medication, error)
	UpdateMedication(id string, mutator func(*Medication) error) (Medication, error)
	DeleteMedication(id string) error
	CreateDoseLog(DoseLog) (DoseLog, error)
	DeleteDoseLog(id string) error
	DeleteDoseLogsForMedication(medicationID string) int
	FindMedication(id string) (Medication, bool)
	FindDoseLog(medicationID string, date Day, block TimeBlockID) (DoseLog, bool)
	UpdateSettings(mutator func(*AppSettings) error) (AppSettings, error)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListMedications() []Medication
	ListDoseLogs() []DoseLog
	FindMedication(id string) (Medication, bool)
	Settings() AppSettings
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetMedication(id string) (Medication, bool)
	ListMedications() []Medication
	ListDoseLogs() []DoseLog
	ListDoseLogsForMedication(medicationID string) []DoseLog
	Settings() AppSettings
	Close() error
}
