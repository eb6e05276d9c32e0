package privacy

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/raaihank/pii-sentinel/internal/config"
	"github.com/raaihank/pii-sentinel/internal/logger"
)

// Detector classifies record fields as standalone or combinatorial PII.
// It holds no per-call state; the pattern tables are read-only.
type Detector struct {
	rules   []StandaloneRule
	enabled map[Kind]bool
	logger  *logger.Logger
	config  config.PrivacyConfig
}

// NewDetector creates a detector from configuration.
func NewDetector(cfg config.PrivacyConfig, log *logger.Logger) (*Detector, error) {
	d := &Detector{
		rules:   standaloneRules,
		enabled: make(map[Kind]bool),
		logger:  log,
		config:  cfg,
	}

	if err := d.configureDetectors(cfg.Detectors); err != nil {
		return nil, fmt.Errorf("failed to configure detectors: %w", err)
	}

	log.Info("PII detector initialized",
		zap.Bool("strict_field_names", cfg.StrictFieldNames),
		zap.Int("standalone_rules", d.countEnabledRules()),
	)

	return d, nil
}

// configureDetectors enables standalone rules based on configuration.
// "all" enables every rule; otherwise names must match a known kind.
func (d *Detector) configureDetectors(detectors []string) error {
	for _, rule := range d.rules {
		d.enabled[rule.Kind] = false
	}

	for _, name := range detectors {
		if name == "all" {
			for _, rule := range d.rules {
				d.enabled[rule.Kind] = true
			}
			continue
		}

		found := false
		for _, rule := range d.rules {
			if string(rule.Kind) == name {
				d.enabled[rule.Kind] = true
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("unknown detector: %s", name)
		}
	}

	return nil
}

// Classify runs the standalone and combinatorial passes over a record. The
// two passes are independent; a field may appear in both result sets, and
// the engine resolves the overlap when masking. Classify never fails:
// absent, empty, and non-string values simply do not match.
func (d *Detector) Classify(record Record) Classification {
	c := Classification{
		Standalone:    make(map[string]Kind),
		Combinatorial: make(map[string]Kind),
	}

	d.classifyStandalone(record, &c)
	d.classifyCombinatorial(record, &c)
	c.HasCombination = len(c.CombinatorialKinds()) >= 2

	if c.IsPII() {
		d.logger.Debug("PII detected",
			zap.Int("standalone_fields", len(c.Standalone)),
			zap.Int("combinatorial_fields", len(c.Combinatorial)),
			zap.Bool("has_combination", c.HasCombination),
		)
	}

	return c
}

// classifyStandalone flags fields matching the standalone patterns. In strict
// mode the field name is authoritative: a value that looks like a phone
// number under an unrelated key is not flagged. In loose mode every string
// field is tested against the rules in priority order.
func (d *Detector) classifyStandalone(record Record, c *Classification) {
	if d.config.StrictFieldNames {
		for _, rule := range d.rules {
			if !d.enabled[rule.Kind] {
				continue
			}
			value, ok := stringValue(record, rule.Field)
			if ok && rule.Match(value) {
				c.Standalone[rule.Field] = rule.Kind
			}
		}
		return
	}

	for field := range record {
		value, ok := stringValue(record, field)
		if !ok {
			continue
		}
		for _, rule := range d.rules {
			if !d.enabled[rule.Kind] {
				continue
			}
			if rule.Match(value) {
				c.Standalone[field] = rule.Kind
				break
			}
		}
	}
}

// classifyCombinatorial flags the first_name/last_name pair and the fixed
// combinatorial keys. Value content is not validated at this stage; presence
// with a non-empty value is enough.
func (d *Detector) classifyCombinatorial(record Record, c *Classification) {
	first, firstOK := stringValue(record, "first_name")
	last, lastOK := stringValue(record, "last_name")
	if firstOK && lastOK && first != "" && last != "" {
		c.Combinatorial["first_name"] = KindName
		c.Combinatorial["last_name"] = KindName
	}

	for field, kind := range combinatorialFields {
		if hasNonEmptyValue(record, field) {
			c.Combinatorial[field] = kind
		}
	}
}

func (d *Detector) countEnabledRules() int {
	count := 0
	for _, on := range d.enabled {
		if on {
			count++
		}
	}
	return count
}

// stringValue fetches a field value when it is present and a string.
func stringValue(record Record, field string) (string, bool) {
	raw, ok := record[field]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// hasNonEmptyValue reports whether a field exists with a usable value.
// Empty strings and nulls do not count; numbers and booleans do.
func hasNonEmptyValue(record Record, field string) bool {
	raw, ok := record[field]
	if !ok || raw == nil {
		return false
	}
	if s, isString := raw.(string); isString {
		return s != ""
	}
	return true
}
