package scan

import (
	"context"
	"testing"

	"medcabinet/pkg/domain"
)

func intPtr(n int) *int { return &n }

func TestPrefillFillsOnlyEmptyFields(t *testing.T) {
	med := domain.Medication{
		Name:             "My Lisinopril", // user already named it
		CurrentInventory: 0,
	}
	Prefill(&med, LabelFields{
		Name:             "Lisinopril",
		Strength:         "10mg",
		Form:             "Tablet",
		RxNumber:         "RX-442",
		PharmacyName:     "Corner Pharmacy",
		Instructions:     "Take one tablet daily",
		Quantity:         intPtr(90),
		RefillsRemaining: intPtr(2),
	})

	if med.Name != "My Lisinopril" {
		t.Fatalf("expected user-set name preserved, got %q", med.Name)
	}
	if med.Strength != "10mg" || med.Form != "Tablet" || med.RxNumber != "RX-442" {
		t.Fatalf("expected label fields filled: %+v", med)
	}
	if med.PharmacyName != "Corner Pharmacy" || med.Instructions != "Take one tablet daily" {
		t.Fatalf("expected pharmacy and instructions filled: %+v", med)
	}
	if med.CurrentInventory != 90 {
		t.Fatalf("expected quantity to seed inventory, got %v", med.CurrentInventory)
	}
	if n, ok := med.RefillsRemaining.Count(); !ok || n != 2 {
		t.Fatalf("expected refills count 2, got %v ok=%v", n, ok)
	}
}

func TestPrefillLeavesUnknownsAlone(t *testing.T) {
	med := domain.Medication{}
	Prefill(&med, LabelFields{Name: "Metformin"})
	if med.CurrentInventory != 0 {
		t.Fatalf("expected inventory untouched without quantity")
	}
	if med.RefillsRemaining.IsKnown() {
		t.Fatalf("expected refills to stay unknown without label data")
	}
}

func TestPrefillZeroRefillsMeansNone(t *testing.T) {
	med := domain.Medication{}
	Prefill(&med, LabelFields{Name: "Metformin", RefillsRemaining: intPtr(0)})
	if !med.RefillsRemaining.IsNone() {
		t.Fatalf("expected zero refills on label to map to none, got %s", med.RefillsRemaining)
	}
}

func TestStaticScanner(t *testing.T) {
	scanner := StaticScanner{Fields: LabelFields{Name: "Atorvastatin"}}
	fields, err := scanner.ScanLabel(context.Background(), [][]byte{[]byte("img")})
	if err != nil || fields.Name != "Atorvastatin" {
		t.Fatalf("unexpected result: %+v err=%v", fields, err)
	}
	if _, err := scanner.ScanLabel(context.Background(), nil); err == nil {
		t.Fatalf("expected error without images")
	}
}
