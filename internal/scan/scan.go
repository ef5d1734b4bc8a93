// Package scan extracts medication details from label photos. Extracted
// fields are advisory: they prefill a medication record for review and are
// never written to the store directly.
package scan

import (
	"context"
	"fmt"
	"strings"

	"medcabinet/pkg/domain"
)

// LabelFields holds the details read off a medication container label.
// Name is the only field the scanner must produce; everything else is
// best-effort. Quantity and RefillsRemaining are pointers so "not visible
// on the label" stays distinct from zero.
type LabelFields struct {
	Name             string `json:"name"`
	Strength         string `json:"strength,omitempty"`
	Form             string `json:"form,omitempty"`
	RxNumber         string `json:"rxNumber,omitempty"`
	PharmacyName     string `json:"pharmacyName,omitempty"`
	Instructions     string `json:"instructions,omitempty"`
	Quantity         *int   `json:"quantity,omitempty"`
	RefillsRemaining *int   `json:"refillsRemaining,omitempty"`
}

// LabelScanner reads label fields from one or more photos of the same
// container. Images are raw encoded bytes (JPEG unless stated otherwise).
type LabelScanner interface {
	ScanLabel(ctx context.Context, images [][]byte) (LabelFields, error)
}

// Prefill copies extracted fields onto a medication draft, filling only
// fields the user has not already set. The caller reviews the draft before
// saving it.
func Prefill(med *domain.Medication, fields LabelFields) {
	if med.Name == "" {
		med.Name = strings.TrimSpace(fields.Name)
	}
	if med.Strength == "" {
		med.Strength = fields.Strength
	}
	if med.Form == "" {
		med.Form = fields.Form
	}
	if med.RxNumber == "" {
		med.RxNumber = fields.RxNumber
	}
	if med.PharmacyName == "" {
		med.PharmacyName = fields.PharmacyName
	}
	if med.Instructions == "" {
		med.Instructions = fields.Instructions
	}
	if med.CurrentInventory == 0 && fields.Quantity != nil && *fields.Quantity > 0 {
		med.CurrentInventory = float64(*fields.Quantity)
	}
	if !med.RefillsRemaining.IsKnown() && fields.RefillsRemaining != nil {
		med.RefillsRemaining = domain.RefillsCount(*fields.RefillsRemaining)
	}
}

// StaticScanner returns fixed fields; used in tests and offline demos.
type StaticScanner struct {
	Fields LabelFields
	Err    error
}

func (s StaticScanner) ScanLabel(_ context.Context, images [][]byte) (LabelFields, error) {
	if s.Err != nil {
		return LabelFields{}, s.Err
	}
	if len(images) == 0 {
		return LabelFields{}, fmt.Errorf("no images provided")
	}
	return s.Fields, nil
}

var _ LabelScanner = StaticScanner{}
