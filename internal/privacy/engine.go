package privacy

import (
	"sort"

	"github.com/raaihank/pii-sentinel/internal/config"
	"github.com/raaihank/pii-sentinel/internal/logger"
)

// Engine ties the detector and masker together: one record in, one redacted
// record and an aggregate PII flag out. Records are processed independently;
// no state survives between calls.
type Engine struct {
	detector *Detector
	logger   *logger.Logger
	enabled  bool
}

// NewEngine creates a classification-and-redaction engine.
func NewEngine(cfg config.PrivacyConfig, log *logger.Logger) (*Engine, error) {
	detector, err := NewDetector(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Engine{detector: detector, logger: log, enabled: cfg.Enabled}, nil
}

// ProcessRecord classifies a record and builds its redacted counterpart.
// Standalone masking is applied first; combinatorial masking then reads from
// the untouched source record, never from the partially redacted copy, so an
// overlapping field is masked exactly once from its original value.
func (e *Engine) ProcessRecord(record Record) ProcessResult {
	redacted := make(Record, len(record))
	for field, value := range record {
		redacted[field] = value
	}

	if !e.enabled {
		return ProcessResult{Redacted: redacted}
	}

	classification := e.detector.Classify(record)

	findings := make(map[string]Finding)

	for field, kind := range classification.Standalone {
		value, _ := stringValue(record, field)
		masked := MaskValue(kind, value)
		redacted[field] = masked
		findings[field] = Finding{Field: field, Kind: kind, Masked: masked}
	}

	if classification.HasCombination {
		e.redactCombination(record, classification, redacted, findings)
	}

	return ProcessResult{
		Redacted: redacted,
		IsPII:    classification.IsPII(),
		Findings: sortedFindings(findings),
	}
}

// redactCombination overwrites every combinatorial hit, reading original
// values, and merges the name pair into a single synthesized field.
func (e *Engine) redactCombination(record Record, c Classification, redacted Record, findings map[string]Finding) {
	for field, kind := range c.Combinatorial {
		if kind == KindName {
			continue // handled by the merge below
		}
		value, _ := stringValue(record, field)
		masked := MaskValue(kind, value)
		redacted[field] = masked
		findings[field] = Finding{Field: field, Kind: kind, Masked: masked}
	}

	if c.Combinatorial["first_name"] == KindName {
		first, _ := stringValue(record, "first_name")
		last, _ := stringValue(record, "last_name")
		masked := MaskName(first + " " + last)
		delete(redacted, "first_name")
		delete(redacted, "last_name")
		delete(findings, "first_name")
		delete(findings, "last_name")
		redacted["name"] = masked
		findings["name"] = Finding{Field: "name", Kind: KindName, Masked: masked}
	}
}

func sortedFindings(byField map[string]Finding) []Finding {
	if len(byField) == 0 {
		return nil
	}
	fields := make([]string, 0, len(byField))
	for field := range byField {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	out := make([]Finding, 0, len(fields))
	for _, field := range fields {
		out = append(out, byField[field])
	}
	return out
}
