package pipeline

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/segmentio/parquet-go"
	"go.uber.org/zap"

	"github.com/raaihank/pii-sentinel/internal/logger"
	"github.com/raaihank/pii-sentinel/internal/metrics"
	"github.com/raaihank/pii-sentinel/internal/privacy"
)

// outputHeader is the fixed contract of the redacted CSV.
var outputHeader = []string{"record_id", "redacted_data_json", "is_pii"}

// Pipeline reads rows from a dataset file, runs each JSON payload through
// the redaction engine, and writes the sanitized CSV. Rows are processed
// strictly sequentially.
type Pipeline struct {
	engine *privacy.Engine
	config *Config
	logger *logger.Logger
}

// NewPipeline creates a file processing pipeline.
func NewPipeline(engine *privacy.Engine, config *Config, log *logger.Logger) *Pipeline {
	return &Pipeline{
		engine: engine,
		config: config,
		logger: log,
	}
}

// ProcessFile processes a dataset file (CSV, Parquet, or JSON lines) and
// writes the redacted CSV to outputPath. A missing input file or a CSV
// without the required columns is fatal. A malformed JSON payload is not
// fatal: the row passes through verbatim with is_pii=False.
func (p *Pipeline) ProcessFile(ctx context.Context, inputPath, outputPath string) (*ProcessingResult, error) {
	start := time.Now()
	result := &ProcessingResult{}

	format := DetectFileFormat(inputPath)
	p.logger.Info("Starting redaction pipeline",
		zap.String("input", inputPath),
		zap.String("output", outputPath),
		zap.String("format", string(format)))

	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer := csv.NewWriter(out)
	if err := writer.Write(outputHeader); err != nil {
		return nil, fmt.Errorf("failed to write output header: %w", err)
	}

	var readRow func() (*InputRow, error)
	switch format {
	case FormatCSV:
		readRow, err = p.csvReader(in)
	case FormatParquet:
		readRow = p.parquetReader(in)
	case FormatJSON:
		readRow = p.jsonReader(in)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", format)
	}
	if err != nil {
		return nil, err
	}

	if err := p.processRows(ctx, readRow, writer, result); err != nil {
		return result, err
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return result, fmt.Errorf("failed to flush output: %w", err)
	}

	result.Duration = time.Since(start)
	p.logger.Info("Redaction pipeline completed",
		zap.Int64("total_records", result.TotalRecords),
		zap.Int64("pii_records", result.PIIRecords),
		zap.Int64("passthrough", result.Passthrough),
		zap.Int64("failed", result.Failed),
		zap.Duration("duration", result.Duration),
		zap.Float64("records_per_sec", float64(result.TotalRecords)/result.Duration.Seconds()))

	return result, nil
}

// processRows drains the reader, redacting row by row. No state persists
// between rows; processing order does not affect outcomes.
func (p *Pipeline) processRows(ctx context.Context, readRow func() (*InputRow, error), writer *csv.Writer, result *ProcessingResult) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		row, err := readRow()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			p.logger.Warn("Failed to read row", zap.Error(err))
			result.Failed++
			result.Errors = append(result.Errors, err.Error())
			continue
		}

		result.TotalRecords++
		if err := p.processRow(row, writer, result); err != nil {
			return err
		}

		if result.TotalRecords%int64(p.config.ProgressReport) == 0 {
			p.logger.Info("Processing progress",
				zap.Int64("records_processed", result.TotalRecords),
				zap.Int64("pii_records", result.PIIRecords),
				zap.Int64("passthrough", result.Passthrough))
		}
	}
}

// processRow redacts one row and writes its output line. The engine is never
// handed invalid JSON: a payload that fails to parse short-circuits into a
// verbatim passthrough with is_pii=False.
func (p *Pipeline) processRow(row *InputRow, writer *csv.Writer, result *ProcessingResult) error {
	metrics.RecordsTotal.Inc()

	var record privacy.Record
	if err := json.Unmarshal([]byte(row.DataJSON), &record); err != nil {
		p.logger.Warn("Malformed JSON payload, passing row through",
			zap.String("record_id", row.RecordID),
			zap.Error(err))
		metrics.MalformedPayloadsTotal.Inc()
		result.Passthrough++
		return writer.Write([]string{row.RecordID, row.DataJSON, formatBool(false)})
	}

	outcome := p.engine.ProcessRecord(record)
	if outcome.IsPII {
		result.PIIRecords++
		metrics.PIIRecordsTotal.Inc()
	}
	for _, finding := range outcome.Findings {
		metrics.MaskedFieldsTotal.WithLabelValues(string(finding.Kind)).Inc()
	}

	redactedJSON, err := json.Marshal(outcome.Redacted)
	if err != nil {
		// A Record is built from decoded JSON, so this should not happen;
		// degrade to passthrough rather than abort the run.
		p.logger.Error("Failed to serialize redacted record",
			zap.String("record_id", row.RecordID),
			zap.Error(err))
		result.Failed++
		return writer.Write([]string{row.RecordID, row.DataJSON, formatBool(false)})
	}

	return writer.Write([]string{row.RecordID, string(redactedJSON), formatBool(outcome.IsPII)})
}

// csvReader validates the header and returns a row reader. The required
// columns are located by name; missing columns abort before any record is
// handled.
func (p *Pipeline) csvReader(r io.Reader) (func() (*InputRow, error), error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idIdx, jsonIdx := -1, -1
	for i, col := range header {
		switch col {
		case "record_id":
			idIdx = i
		case "data_json":
			jsonIdx = i
		}
	}
	if idIdx < 0 || jsonIdx < 0 {
		return nil, fmt.Errorf("input CSV must contain record_id and data_json columns, got %v", header)
	}

	p.logger.Info("CSV header detected", zap.Strings("columns", header))

	return func() (*InputRow, error) {
		fields, err := reader.Read()
		if err != nil {
			return nil, err
		}
		if idIdx >= len(fields) || jsonIdx >= len(fields) {
			return nil, fmt.Errorf("row has %d fields, need at least %d", len(fields), max(idIdx, jsonIdx)+1)
		}
		return &InputRow{RecordID: fields[idIdx], DataJSON: fields[jsonIdx]}, nil
	}, nil
}

// parquetReader reads rows from a Parquet file with record_id and data_json
// columns.
func (p *Pipeline) parquetReader(f *os.File) func() (*InputRow, error) {
	reader := parquet.NewReader(f)
	return func() (*InputRow, error) {
		var row InputRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				reader.Close()
			}
			return nil, err
		}
		return &row, nil
	}
}

// jsonReader reads one JSON object per line.
func (p *Pipeline) jsonReader(r io.Reader) func() (*InputRow, error) {
	decoder := json.NewDecoder(r)
	return func() (*InputRow, error) {
		var row InputRow
		if err := decoder.Decode(&row); err != nil {
			return nil, err
		}
		return &row, nil
	}
}

// formatBool renders the output flag as True/False, the format downstream
// consumers of the redacted CSV expect.
func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
