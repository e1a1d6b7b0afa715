package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"it10bb/internal/core"
	"it10bb/internal/sheets"
)

func breakdown(t *testing.T, ref string) sheets.Breakdown {
	t.Helper()
	a, err := core.Allocate(core.Profile{TotalExpense: 1000, Location: "dhaka", FamilySize: 4, OwnHome: true, HomeSupportStaff: true, Mode: core.Conservative})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return sheets.Breakdown{Reference: ref, CreatedAt: time.Now(), Allocation: a}
}

func TestMemoryStoreAppend(t *testing.T) {
	s := New()

	ref, err := s.AppendBreakdown(context.Background(), breakdown(t, "a"))
	if err != nil || ref != "mem:1-9" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}
	ref, err = s.AppendBreakdown(context.Background(), breakdown(t, "b"))
	if err != nil || ref != "mem:10-18" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	rows := s.Rows()
	if len(rows) != 18 {
		t.Fatalf("got %d rows, want 18", len(rows))
	}
	if rows[8][2] != "TOTAL" || rows[8][4] != int64(1000) {
		t.Errorf("unexpected total row %v", rows[8])
	}
	rows[0][2] = "mutated"
	if s.Rows()[0][2] == "mutated" {
		t.Error("Rows must return a copy")
	}
	if refs := s.References(); len(refs) != 2 || refs[1] != "b" {
		t.Errorf("unexpected references %v", refs)
	}
}

func TestMemoryStoreRejectsInvalid(t *testing.T) {
	s := New()
	_, err := s.AppendBreakdown(context.Background(), breakdown(t, ""))
	if !errors.Is(err, sheets.ErrEmptyReference) {
		t.Fatalf("expected ErrEmptyReference, got %v", err)
	}
	if len(s.Rows()) != 0 {
		t.Error("nothing should be stored on error")
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := New()
	b := breakdown(t, "c")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.AppendBreakdown(context.Background(), b); err != nil {
				t.Errorf("append: %v", err)
			}
		}()
	}
	wg.Wait()
	if len(s.Rows()) != 20*(core.NumCategories+1) {
		t.Errorf("got %d rows", len(s.Rows()))
	}
}
