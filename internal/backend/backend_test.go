package backend

import (
	"context"
	"io"
	"testing"

	"it10bb/internal/config"
	"it10bb/internal/log"
	"it10bb/internal/sheets/memory"
)

func testLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		ExportBackend:                "sheets",
		GoogleSpreadsheetID:          "sheet-id",
		GoogleSheetName:              "Estimates",
		GoogleApplicationCredentials: "/tmp/creds.json",
	}

	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != SheetsBackend || got.CredentialsFile != "/tmp/creds.json" {
		t.Errorf("FromAppConfig() = %+v", got)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{ExportBackend: "sqlite"}); err == nil {
		t.Error("expected error for unknown backend")
	}

	got, err = FromAppConfig(&config.Config{})
	if err != nil || got.Type != NoneBackend {
		t.Errorf("empty backend should default to none, got %+v, %v", got, err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"none", Config{Type: NoneBackend}, false},
		{"memory", Config{Type: MemoryBackend}, false},
		{"invalid", Config{Type: "sqlite"}, true},
		{"sheets without id", Config{Type: SheetsBackend, GoogleSheetName: "E", CredentialsJSON: "{}"}, true},
		{"sheets without name", Config{Type: SheetsBackend, GoogleSpreadsheetID: "x", CredentialsJSON: "{}"}, true},
		{"sheets without credentials", Config{Type: SheetsBackend, GoogleSpreadsheetID: "x", GoogleSheetName: "E"}, true},
		{"sheets", Config{Type: SheetsBackend, GoogleSpreadsheetID: "x", GoogleSheetName: "E", CredentialsFile: "f.json"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateExporter(t *testing.T) {
	f := NewFactory(testLogger())

	res, err := f.CreateExporter(context.Background(), Config{Type: NoneBackend})
	if err != nil {
		t.Fatalf("none: %v", err)
	}
	if res.Writer != nil {
		t.Error("none backend should not produce a writer")
	}

	res, err = f.CreateExporter(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := res.Writer.(*memory.Store); !ok {
		t.Errorf("memory backend writer = %T", res.Writer)
	}

	if _, err := f.CreateExporter(context.Background(), Config{Type: SheetsBackend}); err == nil {
		t.Error("sheets without configuration should fail")
	}

	_, err = f.CreateExporter(context.Background(), Config{
		Type:                SheetsBackend,
		GoogleSpreadsheetID: "x",
		GoogleSheetName:     "E",
		CredentialsFile:     "/nonexistent/creds.json",
	})
	if err == nil {
		t.Error("missing credentials file should fail")
	}
}
