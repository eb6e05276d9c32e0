package privacy

import "strings"

// Sentinel values used when no partial structure can be kept.
const (
	RedactedAddress = "[REDACTED_ADDRESS]"
	RedactedPII     = "[REDACTED_PII]"
)

// Masking is total: every function returns a string and never fails. Values
// that do not fit the expected shape for their kind degrade to RedactedPII.

// MaskPhone keeps the first 2 and last 2 digits of a 10-digit number:
// 9876543210 -> 98XXXXXX10.
func MaskPhone(value string) string {
	if len(value) != 10 {
		return RedactedPII
	}
	return value[:2] + "XXXXXX" + value[8:]
}

// MaskAadhaar keeps the first 4 and last 2 digits and regroups the output as
// NNNN XXXX XXNN. Input may be grouped with spaces.
func MaskAadhaar(value string) string {
	digits := normalizeDigitGroups(value)
	if len(digits) != 12 {
		return RedactedPII
	}
	return digits[:4] + " XXXX XX" + digits[10:]
}

// MaskPassport keeps the first 4 characters: P1234567 -> P123XXXX.
func MaskPassport(value string) string {
	if len(value) < 4 {
		return RedactedPII
	}
	return value[:4] + "XXXX"
}

// MaskUPI masks the local part of local@domain. A 10-digit local part is
// masked with the phone rule, anything else keeps 2 characters; the domain
// is left unchanged.
func MaskUPI(value string) string {
	local, domain, ok := strings.Cut(value, "@")
	if !ok {
		return RedactedPII
	}
	if isPhone(local) {
		return MaskPhone(local) + "@" + domain
	}
	prefix := local
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return prefix + "XX@" + domain
}

// MaskEmail masks the local part and leaves the domain unchanged. Local parts
// longer than 2 characters keep their first 2; a 2-character local is hidden
// entirely; a single character survives: john.doe@x.com -> joXXX@x.com,
// ab@b.com -> XXX@b.com, a@b.com -> aXXX@b.com.
func MaskEmail(value string) string {
	local, domain, ok := strings.Cut(value, "@")
	if !ok {
		return RedactedPII
	}
	var masked string
	switch {
	case len(local) > 2:
		masked = local[:2] + "XXX"
	case len(local) == 1:
		masked = local + "XXX"
	default:
		masked = "XXX"
	}
	return masked + "@" + domain
}

// MaskName keeps the first character of each space-separated token:
// "Rahul Sharma" -> "RXXX SXXX". Single-character tokens collapse to XXX.
func MaskName(value string) string {
	tokens := strings.Fields(value)
	if len(tokens) == 0 {
		return RedactedPII
	}
	masked := make([]string, len(tokens))
	for i, tok := range tokens {
		if len(tok) > 1 {
			masked[i] = tok[:1] + "XXX"
		} else {
			masked[i] = "XXX"
		}
	}
	return strings.Join(masked, " ")
}

// MaskValue dispatches on kind. Unknown kinds and structureless kinds
// (address, device id, IP) map to their sentinels.
func MaskValue(kind Kind, value string) string {
	switch kind {
	case KindPhone:
		return MaskPhone(value)
	case KindAadhaar:
		return MaskAadhaar(value)
	case KindPassport:
		return MaskPassport(value)
	case KindUPI:
		return MaskUPI(value)
	case KindEmail:
		return MaskEmail(value)
	case KindName:
		return MaskName(value)
	case KindAddress:
		return RedactedAddress
	default:
		return RedactedPII
	}
}
