package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/raaihank/pii-sentinel/internal/config"
	"github.com/raaihank/pii-sentinel/internal/logger"
	"github.com/raaihank/pii-sentinel/internal/privacy"
)

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	engine, err := privacy.NewEngine(config.PrivacyConfig{
		Enabled:          true,
		StrictFieldNames: true,
		Detectors:        []string{"all"},
	}, logger.Nop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return NewPipeline(engine, &Config{
		ProgressReport: 1000,
		OutputSuffix:   "_redacted",
	}, logger.Nop())
}

func writeInputCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create input: %v", err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("write input: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close input: %v", err)
	}
	return path
}

func readOutputCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	return rows
}

func TestProcessFileCSVRoundTrip(t *testing.T) {
	p := newTestPipeline(t)

	input := writeInputCSV(t, [][]string{
		{"record_id", "data_json"},
		{"r1", `{"phone":"9876543210","order_id":"A-17"}`},
		{"r2", `{"order_id":"A-18"}`},
	})
	output := filepath.Join(t.TempDir(), "out.csv")

	result, err := p.ProcessFile(context.Background(), input, output)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if result.TotalRecords != 2 {
		t.Errorf("TotalRecords = %d, want 2", result.TotalRecords)
	}
	if result.PIIRecords != 1 {
		t.Errorf("PIIRecords = %d, want 1", result.PIIRecords)
	}

	rows := readOutputCSV(t, output)
	if len(rows) != 3 {
		t.Fatalf("output has %d rows, want 3", len(rows))
	}
	if got := strings.Join(rows[0], ","); got != "record_id,redacted_data_json,is_pii" {
		t.Errorf("header = %q", got)
	}

	if rows[1][0] != "r1" || rows[1][2] != "True" {
		t.Errorf("r1 row = %v, want is_pii True", rows[1])
	}
	var redacted map[string]any
	if err := json.Unmarshal([]byte(rows[1][1]), &redacted); err != nil {
		t.Fatalf("r1 output payload is not valid JSON: %v", err)
	}
	if redacted["phone"] != "98XXXXXX10" {
		t.Errorf("r1 phone = %v, want 98XXXXXX10", redacted["phone"])
	}
	if redacted["order_id"] != "A-17" {
		t.Errorf("r1 order_id = %v, want untouched", redacted["order_id"])
	}

	if rows[2][0] != "r2" || rows[2][2] != "False" {
		t.Errorf("r2 row = %v, want is_pii False", rows[2])
	}
}

func TestProcessFileMalformedJSONPassthrough(t *testing.T) {
	p := newTestPipeline(t)

	payload := `{"phone": "9876543210"` // truncated on purpose
	input := writeInputCSV(t, [][]string{
		{"record_id", "data_json"},
		{"r1", payload},
	})
	output := filepath.Join(t.TempDir(), "out.csv")

	result, err := p.ProcessFile(context.Background(), input, output)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if result.Passthrough != 1 {
		t.Errorf("Passthrough = %d, want 1", result.Passthrough)
	}
	if result.PIIRecords != 0 {
		t.Errorf("PIIRecords = %d, want 0", result.PIIRecords)
	}

	rows := readOutputCSV(t, output)
	if len(rows) != 2 {
		t.Fatalf("output has %d rows, want 2", len(rows))
	}
	// The broken payload must come out byte for byte, flagged clean.
	if rows[1][1] != payload {
		t.Errorf("payload = %q, want verbatim %q", rows[1][1], payload)
	}
	if rows[1][2] != "False" {
		t.Errorf("is_pii = %q, want False", rows[1][2])
	}
}

func TestProcessFileMissingColumns(t *testing.T) {
	p := newTestPipeline(t)

	input := writeInputCSV(t, [][]string{
		{"id", "payload"},
		{"r1", `{}`},
	})
	output := filepath.Join(t.TempDir(), "out.csv")

	_, err := p.ProcessFile(context.Background(), input, output)
	if err == nil {
		t.Fatal("expected error for CSV without record_id/data_json columns")
	}
	if !strings.Contains(err.Error(), "record_id") {
		t.Errorf("error %q should name the missing columns", err)
	}
}

func TestProcessFileMissingInput(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.ProcessFile(context.Background(),
		filepath.Join(t.TempDir(), "nope.csv"),
		filepath.Join(t.TempDir(), "out.csv"))
	if err == nil {
		t.Fatal("expected error for missing input file")
	}
}

func TestProcessFileExtraColumnsIgnored(t *testing.T) {
	p := newTestPipeline(t)

	input := writeInputCSV(t, [][]string{
		{"batch", "record_id", "data_json", "source"},
		{"b1", "r1", `{"email":"a@b.com"}`, "upstream"},
	})
	output := filepath.Join(t.TempDir(), "out.csv")

	result, err := p.ProcessFile(context.Background(), input, output)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if result.TotalRecords != 1 {
		t.Errorf("TotalRecords = %d, want 1", result.TotalRecords)
	}
	rows := readOutputCSV(t, output)
	if rows[1][0] != "r1" {
		t.Errorf("record_id = %q, want r1", rows[1][0])
	}
}

func TestProcessFileJSONLines(t *testing.T) {
	p := newTestPipeline(t)

	path := filepath.Join(t.TempDir(), "input.jsonl")
	content := `{"record_id":"r1","data_json":"{\"phone\":\"9876543210\"}"}
{"record_id":"r2","data_json":"{\"order_id\":\"A-18\"}"}
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	output := filepath.Join(t.TempDir(), "out.csv")

	result, err := p.ProcessFile(context.Background(), path, output)
	if err != nil {
		t.Fatalf("ProcessFile: %v", err)
	}
	if result.TotalRecords != 2 || result.PIIRecords != 1 {
		t.Errorf("result = %+v, want 2 records, 1 PII", result)
	}
}

func TestProcessFileCancelledContext(t *testing.T) {
	p := newTestPipeline(t)

	input := writeInputCSV(t, [][]string{
		{"record_id", "data_json"},
		{"r1", `{}`},
	})
	output := filepath.Join(t.TempDir(), "out.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessFile(ctx, input, output)
	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDetectFileFormat(t *testing.T) {
	tests := []struct {
		path     string
		expected FileFormat
	}{
		{"data.csv", FormatCSV},
		{"data.CSV", FormatCSV},
		{"data.parquet", FormatParquet},
		{"data.json", FormatJSON},
		{"data.jsonl", FormatJSON},
		{"data.ndjson", FormatJSON},
		{"data", FormatCSV},
	}
	for _, tt := range tests {
		if got := DetectFileFormat(tt.path); got != tt.expected {
			t.Errorf("DetectFileFormat(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}

func TestOutputPathFor(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"data.csv", "data_redacted.csv"},
		{"data.parquet", "data_redacted.csv"},
		{"dir/data.jsonl", "dir/data_redacted.csv"},
		{"data", "data_redacted.csv"},
	}
	for _, tt := range tests {
		if got := OutputPathFor(tt.input, "_redacted"); got != tt.expected {
			t.Errorf("OutputPathFor(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
