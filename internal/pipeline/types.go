package pipeline

import (
	"path/filepath"
	"strings"
	"time"
)

// InputRow is a single row from the input dataset: an opaque record ID and
// the JSON-encoded payload that the engine classifies.
type InputRow struct {
	RecordID string `csv:"record_id" parquet:"record_id" json:"record_id"`
	DataJSON string `csv:"data_json" parquet:"data_json" json:"data_json"`
}

// ProcessingResult represents the result of processing a dataset
type ProcessingResult struct {
	TotalRecords int64         `json:"total_records"`
	PIIRecords   int64         `json:"pii_records"`
	Passthrough  int64         `json:"passthrough"` // malformed payloads copied verbatim
	Failed       int64         `json:"failed"`      // rows that could not be read at all
	Duration     time.Duration `json:"duration"`
	Errors       []string      `json:"errors,omitempty"`
}

// Config contains pipeline configuration
type Config struct {
	ProgressReport int    `yaml:"progress_report" mapstructure:"progress_report"` // 1000
	OutputSuffix   string `yaml:"output_suffix" mapstructure:"output_suffix"`     // _redacted
}

// FileFormat represents supported input file formats
type FileFormat string

const (
	FormatCSV     FileFormat = "csv"
	FormatParquet FileFormat = "parquet"
	FormatJSON    FileFormat = "json"
)

// DetectFileFormat detects file format from extension
func DetectFileFormat(filename string) FileFormat {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".parquet":
		return FormatParquet
	case ".json", ".jsonl", ".ndjson":
		return FormatJSON
	default:
		return FormatCSV
	}
}

// OutputPathFor derives the output CSV path for an input file:
// data.csv -> data_redacted.csv. The output is always CSV regardless of the
// input format.
func OutputPathFor(inputPath, suffix string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(inputPath, ext)
	return base + suffix + ".csv"
}
