package privacy

import (
	"testing"

	"github.com/raaihank/pii-sentinel/internal/config"
	"github.com/raaihank/pii-sentinel/internal/logger"
)

func newTestDetector(t *testing.T, strict bool) *Detector {
	t.Helper()
	d, err := NewDetector(config.PrivacyConfig{
		Enabled:          true,
		StrictFieldNames: strict,
		Detectors:        []string{"all"},
	}, logger.Nop())
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}
	return d
}

func TestNewDetectorUnknownDetector(t *testing.T) {
	_, err := NewDetector(config.PrivacyConfig{
		Enabled:   true,
		Detectors: []string{"ssn"},
	}, logger.Nop())
	if err == nil {
		t.Fatal("expected error for unknown detector name")
	}
}

func TestClassifyStandalone(t *testing.T) {
	d := newTestDetector(t, true)

	tests := []struct {
		name     string
		record   Record
		field    string
		kind     Kind
		expected bool
	}{
		{name: "valid phone", record: Record{"phone": "9876543210"}, field: "phone", kind: KindPhone, expected: true},
		{name: "phone wrong length", record: Record{"phone": "12345"}, field: "phone", expected: false},
		{name: "phone with letters", record: Record{"phone": "98765abcde"}, field: "phone", expected: false},
		{name: "phone as number not string", record: Record{"phone": 9876543210.0}, field: "phone", expected: false},
		{name: "aadhaar contiguous", record: Record{"aadhar": "123456789012"}, field: "aadhar", kind: KindAadhaar, expected: true},
		{name: "aadhaar grouped", record: Record{"aadhar": "1234 5678 9012"}, field: "aadhar", kind: KindAadhaar, expected: true},
		{name: "aadhaar too short", record: Record{"aadhar": "1234 5678"}, field: "aadhar", expected: false},
		{name: "valid passport", record: Record{"passport": "P1234567"}, field: "passport", kind: KindPassport, expected: true},
		{name: "passport lowercase", record: Record{"passport": "p1234567"}, field: "passport", expected: false},
		{name: "passport too many digits", record: Record{"passport": "P12345678"}, field: "passport", expected: false},
		{name: "valid upi", record: Record{"upi_id": "rahul@okaxis"}, field: "upi_id", kind: KindUPI, expected: true},
		{name: "upi phone local", record: Record{"upi_id": "9876543210@ybl"}, field: "upi_id", kind: KindUPI, expected: true},
		{name: "upi without domain", record: Record{"upi_id": "rahul@"}, field: "upi_id", expected: false},
		{name: "empty value", record: Record{"phone": ""}, field: "phone", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := d.Classify(tt.record)
			kind, hit := c.Standalone[tt.field]
			if hit != tt.expected {
				t.Fatalf("standalone hit for %q = %v, want %v", tt.field, hit, tt.expected)
			}
			if hit && kind != tt.kind {
				t.Errorf("kind for %q = %q, want %q", tt.field, kind, tt.kind)
			}
		})
	}
}

func TestClassifyFieldNameIsAuthoritative(t *testing.T) {
	d := newTestDetector(t, true)

	// A phone-shaped value under an unrelated key must not be flagged in
	// strict mode.
	c := d.Classify(Record{"order_ref": "9876543210"})
	if len(c.Standalone) != 0 {
		t.Errorf("expected no standalone hits, got %v", c.Standalone)
	}
	if c.IsPII() {
		t.Error("expected record not to be flagged as PII")
	}
}

func TestClassifyLooseFieldNames(t *testing.T) {
	d := newTestDetector(t, false)

	c := d.Classify(Record{"order_ref": "9876543210"})
	if kind := c.Standalone["order_ref"]; kind != KindPhone {
		t.Errorf("loose mode: order_ref kind = %q, want %q", kind, KindPhone)
	}
}

func TestClassifyLooseKindsByShape(t *testing.T) {
	d := newTestDetector(t, false)

	c := d.Classify(Record{
		"contact":  "9876543210",
		"national": "1234 5678 9012",
		"travel":   "P1234567",
		"payment":  "rahul@okaxis",
	})
	want := map[string]Kind{
		"contact":  KindPhone,
		"national": KindAadhaar,
		"travel":   KindPassport,
		"payment":  KindUPI,
	}
	for field, kind := range want {
		if got := c.Standalone[field]; got != kind {
			t.Errorf("loose mode: %s kind = %q, want %q", field, got, kind)
		}
	}
}

func TestClassifyCombinatorialBoundary(t *testing.T) {
	d := newTestDetector(t, true)

	tests := []struct {
		name           string
		record         Record
		hasCombination bool
		isPII          bool
	}{
		{
			name:           "name pair alone is one kind",
			record:         Record{"first_name": "Rahul", "last_name": "Sharma"},
			hasCombination: false,
			isPII:          false,
		},
		{
			name:           "email alone is one kind",
			record:         Record{"email": "rahul@example.com"},
			hasCombination: false,
			isPII:          false,
		},
		{
			name:           "name plus email crosses the threshold",
			record:         Record{"first_name": "Rahul", "last_name": "Sharma", "email": "a@b.com"},
			hasCombination: true,
			isPII:          true,
		},
		{
			name:           "email plus address",
			record:         Record{"email": "a@b.com", "address": "12 MG Road, Bangalore"},
			hasCombination: true,
			isPII:          true,
		},
		{
			name:           "device id plus ip address",
			record:         Record{"device_id": "DEV-99", "ip_address": "10.0.0.7"},
			hasCombination: true,
			isPII:          true,
		},
		{
			name:           "empty email does not count",
			record:         Record{"email": "", "address": "12 MG Road"},
			hasCombination: false,
			isPII:          false,
		},
		{
			name:           "first name without last name does not count",
			record:         Record{"first_name": "Rahul", "email": "a@b.com"},
			hasCombination: false,
			isPII:          false,
		},
		{
			name:           "literal name key does not count",
			record:         Record{"name": "Rahul Sharma", "email": "a@b.com"},
			hasCombination: false,
			isPII:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := d.Classify(tt.record)
			if c.HasCombination != tt.hasCombination {
				t.Errorf("HasCombination = %v, want %v", c.HasCombination, tt.hasCombination)
			}
			if c.IsPII() != tt.isPII {
				t.Errorf("IsPII = %v, want %v", c.IsPII(), tt.isPII)
			}
		})
	}
}

func TestClassifyAllCombinatorialFieldsFlagged(t *testing.T) {
	d := newTestDetector(t, true)

	// Three kinds present: all three are redaction candidates, not just the
	// two that tipped the threshold.
	c := d.Classify(Record{
		"first_name": "Rahul",
		"last_name":  "Sharma",
		"email":      "a@b.com",
		"address":    "12 MG Road",
	})
	if !c.HasCombination {
		t.Fatal("expected combination")
	}
	for _, field := range []string{"first_name", "last_name", "email", "address"} {
		if _, ok := c.Combinatorial[field]; !ok {
			t.Errorf("expected %q in combinatorial set", field)
		}
	}
}

func TestClassifyStandaloneAndCombinatorialIndependent(t *testing.T) {
	d := newTestDetector(t, true)

	c := d.Classify(Record{
		"phone": "9876543210",
		"email": "a@b.com",
	})
	if len(c.Standalone) != 1 {
		t.Errorf("expected one standalone hit, got %v", c.Standalone)
	}
	// Single combinatorial kind: below threshold, but the standalone hit
	// still makes the record PII.
	if c.HasCombination {
		t.Error("expected no combination with a single combinatorial kind")
	}
	if !c.IsPII() {
		t.Error("expected standalone hit to flag the record")
	}
}

func TestDetectorDisabledRule(t *testing.T) {
	d, err := NewDetector(config.PrivacyConfig{
		Enabled:          true,
		StrictFieldNames: true,
		Detectors:        []string{"phone"},
	}, logger.Nop())
	if err != nil {
		t.Fatalf("NewDetector: %v", err)
	}

	c := d.Classify(Record{"phone": "9876543210", "passport": "P1234567"})
	if _, ok := c.Standalone["phone"]; !ok {
		t.Error("expected phone hit with phone detector enabled")
	}
	if _, ok := c.Standalone["passport"]; ok {
		t.Error("expected no passport hit with passport detector disabled")
	}
}
