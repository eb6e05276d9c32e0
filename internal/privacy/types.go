package privacy

// Record is one logical unit of input data: the JSON object payload of a
// single row. Values are JSON scalars (string, float64, bool) or nil.
// Records are never mutated; redaction derives a new Record.
type Record map[string]any

// Kind identifies the category a field was classified as.
type Kind string

const (
	// Standalone kinds: the value alone is identifying.
	KindPhone    Kind = "phone"
	KindAadhaar  Kind = "aadhaar"
	KindPassport Kind = "passport"
	KindUPI      Kind = "upi_id"

	// Combinatorial kinds: sensitive only when two or more appear together.
	KindName      Kind = "name"
	KindEmail     Kind = "email"
	KindAddress   Kind = "address"
	KindDeviceID  Kind = "device_id"
	KindIPAddress Kind = "ip_address"
)

// Classification is the Detector's verdict for one record: which fields are
// standalone PII, which fields participate in a combinatorial group, and
// whether that group is large enough to count.
type Classification struct {
	// Standalone maps field name to the standalone kind it matched.
	Standalone map[string]Kind
	// Combinatorial maps field name to its combinatorial kind. A detected
	// first_name/last_name pair appears under both keys with KindName.
	Combinatorial map[string]Kind
	// HasCombination is true iff at least two distinct combinatorial kinds
	// are present.
	HasCombination bool
}

// CombinatorialKinds returns the set of distinct combinatorial kinds present.
func (c Classification) CombinatorialKinds() map[Kind]bool {
	kinds := make(map[Kind]bool, len(c.Combinatorial))
	for _, k := range c.Combinatorial {
		kinds[k] = true
	}
	return kinds
}

// IsPII reports the record-level aggregate flag: any standalone hit, or a
// qualifying combinatorial group.
func (c Classification) IsPII() bool {
	return len(c.Standalone) > 0 || c.HasCombination
}

// Finding describes one redacted field, for logs and event streams.
// The original value is deliberately absent.
type Finding struct {
	Field  string `json:"field"`
	Kind   Kind   `json:"kind"`
	Masked string `json:"masked"`
}

// ProcessResult is the outcome of running one record through the engine.
type ProcessResult struct {
	Redacted Record    `json:"redacted"`
	IsPII    bool      `json:"is_pii"`
	Findings []Finding `json:"findings,omitempty"`
}
