package core

import (
	"fmt"

	"medcabinet/pkg/domain"
)

type (
	EntityType         = domain.EntityType
	Severity           = domain.Severity
	Base               = domain.Base
	Medication         = domain.Medication
	ScheduleBlock      = domain.ScheduleBlock
	DoseLog            = domain.DoseLog
	RefillEvent        = domain.RefillEvent
	AppSettings        = domain.AppSettings
	Day                = domain.Day
	TimeBlockID        = domain.TimeBlockID
	Refills            = domain.Refills
	Change             = domain.Change
	Action             = domain.Action
	Violation          = domain.Violation
	Result             = domain.Result
	RulesEngine        = domain.RulesEngine
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityMedication = domain.EntityMedication
	EntityDoseLog    = domain.EntityDoseLog
	EntitySettings   = domain.EntitySettings
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
	SeverityLog   = domain.SeverityLog
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
	ActionDelete = domain.ActionDelete
)

// ErrNotFound reports a lookup that matched no record.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}
