// Package domain defines the persistent entities, value types, and rule
// evaluation primitives used by medcabinet.
package domain

import "time"

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityMedication identifies a medication record.
	EntityMedication EntityType = "medication"
	// EntityDoseLog identifies a dose log record.
	EntityDoseLog EntityType = "dose_log"
	// EntitySettings identifies the singleton application settings record.
	EntitySettings EntityType = "settings"
)

// MedicationStatus represents the lifecycle state of a medication.
type MedicationStatus string

// Canonical medication lifecycle states.
const (
	// MedicationActive is a medication currently being taken.
	MedicationActive MedicationStatus = "active"
	// MedicationPaused is temporarily suspended but expected to resume.
	MedicationPaused MedicationStatus = "paused"
	// MedicationStopped is archived; history remains visible.
	MedicationStopped MedicationStatus = "stopped"
)

// Frequency describes how often a medication is intended to be taken. It is
// descriptive metadata for forms; the schedule blocks are authoritative.
type Frequency string

// Canonical frequency labels.
const (
	FrequencyDaily      Frequency = "daily"
	FrequencyTwiceDaily Frequency = "twice_daily"
	FrequencyThrice     Frequency = "3x_daily"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyAsNeeded   Frequency = "prn"
)

// AnchorType distinguishes schedules anchored to clock times from schedules
// anchored to meals.
type AnchorType string

// Schedule anchor kinds.
const (
	AnchorTime AnchorType = "time"
	AnchorMeal AnchorType = "meal"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScheduleBlock is one scheduled dose slot within a medication's day.
type ScheduleBlock struct {
	ID                  string      `json:"id"`
	TimeBlock           TimeBlockID `json:"time_block"`
	Dose                float64     `json:"dose"`
	NotificationEnabled bool        `json:"notification_enabled"`
	NotificationTime    string      `json:"notification_time,omitempty"` // "HH:MM"
}

// RefillEvent records one completed refill pickup.
type RefillEvent struct {
	ID     string  `json:"id"`
	Date   Day     `json:"date"`
	Amount float64 `json:"amount"`
}

// Medication is a prescribed item together with its dosing schedule,
// inventory, and refill tracking state.
type Medication struct {
	Base
	Name         string `json:"name"`
	Nickname     string `json:"nickname,omitempty"`
	Strength     string `json:"strength,omitempty"`
	Form         string `json:"form,omitempty"`
	Instructions string `json:"instructions,omitempty"`
	Color        string `json:"color,omitempty"`
	ImageKey     string `json:"image_key,omitempty"` // blob store key, optional

	Frequency  Frequency       `json:"frequency"`
	AnchorType AnchorType      `json:"anchor_type"`
	Schedule   []ScheduleBlock `json:"schedule"`

	CurrentInventory float64 `json:"current_inventory"`
	RefillThreshold  float64 `json:"refill_threshold"`
	InventoryUnit    string  `json:"inventory_unit,omitempty"`

	PharmacyName  string `json:"pharmacy_name,omitempty"`
	PharmacyPhone string `json:"pharmacy_phone,omitempty"`
	RxNumber      string `json:"rx_number,omitempty"`
	DoctorName    string `json:"doctor_name,omitempty"`
	DoctorPhone   string `json:"doctor_phone,omitempty"`
	Notes         string `json:"notes,omitempty"`

	RefillsRemaining   Refills       `json:"refills_remaining"`
	LastRefilled       *time.Time    `json:"last_refilled,omitempty"`
	RefillHistory      []RefillEvent `json:"refill_history,omitempty"`
	RefillExpectedDate *Day          `json:"refill_expected_date,omitempty"`
	RefillAlertEnabled bool          `json:"refill_alert_enabled"`
	RefillAlertTime    string        `json:"refill_alert_time,omitempty"`

	Status      MedicationStatus `json:"status"`
	DateAdded   Day              `json:"date_added"`
	DateStopped *Day             `json:"date_stopped,omitempty"`
}

// DailyDose is the total quantity consumed per day when every scheduled dose
// is taken.
func (m Medication) DailyDose() float64 {
	var total float64
	for _, block := range m.Schedule {
		total += block.Dose
	}
	return total
}

// FindScheduleBlock returns the schedule block for the given time block.
func (m Medication) FindScheduleBlock(tb TimeBlockID) (ScheduleBlock, bool) {
	for _, block := range m.Schedule {
		if block.TimeBlock == tb {
			return block, true
		}
	}
	return ScheduleBlock{}, false
}

// ActiveOn reports whether the medication counts toward the given calendar
// day: not yet added and stopped-before days are excluded, so history stays
// intact across stop/restore cycles.
func (m Medication) ActiveOn(date Day) bool {
	if date.Before(m.DateAdded) {
		return false
	}
	if m.Status == MedicationStopped && m.DateStopped != nil && m.DateStopped.Before(date) {
		return false
	}
	return true
}

// DoseLog records that a scheduled dose was marked taken on a calendar day.
// Logs are keyed logically by (MedicationID, ScheduledDate, TimeBlock) and
// removed outright when a dose is un-taken.
type DoseLog struct {
	Base
	MedicationID  string      `json:"medication_id"`
	ScheduledDate Day         `json:"scheduled_date"`
	TimeBlock     TimeBlockID `json:"time_block"`
	Taken         bool        `json:"taken"`
	Timestamp     time.Time   `json:"timestamp"`
}

// AppSettings is the singleton application preferences record.
type AppSettings struct {
	DailySummaryEnabled bool   `json:"daily_summary_enabled"`
	DailySummaryTime    string `json:"daily_summary_time,omitempty"` // "HH:MM"
}

// DefaultSettings returns the out-of-the-box settings record.
func DefaultSettings() AppSettings {
	return AppSettings{DailySummaryEnabled: false, DailySummaryTime: "07:00"}
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
