package sheets

import (
	"errors"
	"testing"
	"time"

	"it10bb/internal/core"
)

func allocation(t *testing.T) core.Allocation {
	t.Helper()
	a, err := core.Allocate(core.Profile{TotalExpense: 600000, Location: "other_area", FamilySize: 3, HasKids: true})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return a
}

func TestBreakdownRows(t *testing.T) {
	b := Breakdown{
		Reference:  "est_1",
		CreatedAt:  time.Date(2024, 7, 1, 9, 30, 0, 0, time.UTC),
		Allocation: allocation(t),
	}

	rows := b.Rows()
	if len(rows) != core.NumCategories+1 {
		t.Fatalf("got %d rows, want %d", len(rows), core.NumCategories+1)
	}
	first := rows[0]
	if first[0] != "2024-07-01 09:30:00" || first[1] != "est_1" || first[2] != core.Food.Label() {
		t.Errorf("unexpected first row %v", first)
	}
	if first[3] != 37 || first[4] != int64(222000) {
		t.Errorf("unexpected first row values %v", first)
	}
	last := rows[len(rows)-1]
	if last[2] != "TOTAL" || last[3] != 100 || last[4] != int64(600000) {
		t.Errorf("unexpected total row %v", last)
	}
}

func TestBreakdownValidate(t *testing.T) {
	if err := (Breakdown{Allocation: allocation(t)}).Validate(); !errors.Is(err, ErrEmptyReference) {
		t.Errorf("expected ErrEmptyReference, got %v", err)
	}
	if err := (Breakdown{Reference: "x"}).Validate(); !errors.Is(err, core.ErrInternalInconsistency) {
		t.Errorf("expected ErrInternalInconsistency for empty allocation, got %v", err)
	}
	if err := (Breakdown{Reference: "x", Allocation: allocation(t)}).Validate(); err != nil {
		t.Errorf("unexpected error %v", err)
	}
}
