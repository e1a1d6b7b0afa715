package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"it10bb/internal/core"
	ports "it10bb/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func testBreakdown(t *testing.T) ports.Breakdown {
	t.Helper()
	a, err := core.Allocate(core.Profile{TotalExpense: 600000, Location: "other_area", FamilySize: 3, HasKids: true})
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	return ports.Breakdown{Reference: "est_1", CreatedAt: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), Allocation: a}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{}, nil)
	if err == nil {
		t.Fatal("expected error for missing spreadsheet ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "id"}, nil)
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("expected missing credentials error, got %v", err)
	}
}

func TestNew_UnreadableCredentialsFile(t *testing.T) {
	_, err := New(context.Background(), Options{SpreadsheetID: "id", CredentialsFile: "/non/existent.json"}, nil)
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestClient_AppendBreakdownNilService(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Estimates"}
	if _, err := c.AppendBreakdown(context.Background(), testBreakdown(t)); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestClient_AppendBreakdownValidation(t *testing.T) {
	c := &Client{spreadsheetID: "test", sheetName: "Estimates"}
	b := testBreakdown(t)
	b.Reference = ""
	_, err := c.AppendBreakdown(context.Background(), b)
	if err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClient_AppendBreakdown(t *testing.T) {
	var (
		gotPath  string
		gotQuery string
		gotBody  gsheet.ValueRange
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-123","updates":{"updatedRange":"Estimates!A2:E10","updatedRows":9}}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	c, err := New(ctx, Options{
		SpreadsheetID: "sheet-123",
		SheetName:     "Estimates",
		ClientOptions: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
		},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ref, err := c.AppendBreakdown(ctx, testBreakdown(t))
	if err != nil {
		t.Fatalf("AppendBreakdown: %v", err)
	}
	if ref != "Estimates!A2:E10" {
		t.Errorf("ref = %q, want Estimates!A2:E10", ref)
	}
	if !strings.Contains(gotPath, "sheet-123") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("unexpected path %q", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=USER_ENTERED") || !strings.Contains(gotQuery, "insertDataOption=INSERT_ROWS") {
		t.Errorf("unexpected query %q", gotQuery)
	}
	if len(gotBody.Values) != core.NumCategories+1 {
		t.Fatalf("got %d rows, want %d", len(gotBody.Values), core.NumCategories+1)
	}
	if gotBody.Values[8][2] != "TOTAL" {
		t.Errorf("last row should be TOTAL, got %v", gotBody.Values[8])
	}
}
