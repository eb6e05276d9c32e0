package privacy

import "regexp"

// Compiled once at process start; read-only afterwards.
var (
	phonePattern    = regexp.MustCompile(`^\d{10}$`)
	aadhaarPattern  = regexp.MustCompile(`^\d{12}$`) // after whitespace normalization
	passportPattern = regexp.MustCompile(`^[A-Z]\d{7}$`)
	upiPattern      = regexp.MustCompile(`^[A-Za-z0-9._-]+@[A-Za-z0-9.-]+$`)
)

// StandaloneRule ties a standalone kind to the JSON key it is stored under
// and the predicate its value must satisfy.
type StandaloneRule struct {
	Kind  Kind
	Field string
	Match func(value string) bool
}

// standaloneRules is ordered: when strict field-name gating is disabled and a
// value matches more than one pattern, the earlier rule wins.
// Priority: phone > aadhaar > passport > upi.
var standaloneRules = []StandaloneRule{
	{Kind: KindPhone, Field: "phone", Match: isPhone},
	{Kind: KindAadhaar, Field: "aadhar", Match: isAadhaar},
	{Kind: KindPassport, Field: "passport", Match: isPassport},
	{Kind: KindUPI, Field: "upi_id", Match: isUPI},
}

// combinatorialFields maps JSON keys counted as combinatorial hits when
// present with a non-empty value. The first_name/last_name pair is handled
// separately since it spans two keys.
var combinatorialFields = map[string]Kind{
	"email":      KindEmail,
	"address":    KindAddress,
	"device_id":  KindDeviceID,
	"ip_address": KindIPAddress,
}

// StandaloneRules exposes the rule table, primarily for introspection
// endpoints and configuration validation.
func StandaloneRules() []StandaloneRule {
	rules := make([]StandaloneRule, len(standaloneRules))
	copy(rules, standaloneRules)
	return rules
}

func isPhone(value string) bool {
	return phonePattern.MatchString(value)
}

func isAadhaar(value string) bool {
	return aadhaarPattern.MatchString(normalizeDigitGroups(value))
}

func isPassport(value string) bool {
	return passportPattern.MatchString(value)
}

func isUPI(value string) bool {
	return upiPattern.MatchString(value)
}

// normalizeDigitGroups strips the spaces of a 4-4-4 grouped number so the
// full-match patterns see a contiguous digit run.
func normalizeDigitGroups(value string) string {
	out := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] == ' ' {
			continue
		}
		out = append(out, value[i])
	}
	return string(out)
}
