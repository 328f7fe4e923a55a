package verification

import "strings"

const maskedPlaceholder = "XXXX XXXX XXXX"

// IsValidAadhaarFormat reports whether s is exactly 12 numeric digits.
// Format only; Verhoeff checksum validation belongs to the upstream provider.
func IsValidAadhaarFormat(s string) bool {
	if len(s) != 12 {
		return false
	}
	return allDigits(s)
}

// IsValidOTPFormat reports whether s is exactly 6 numeric digits.
func IsValidOTPFormat(s string) bool {
	if len(s) != 6 {
		return false
	}
	return allDigits(s)
}

// MaskAadhaar returns the display form "XXXX XXXX dddd" keeping only the last
// four digits. Invalid input yields the fixed placeholder so a bad value can
// never leak through the mask.
func MaskAadhaar(s string) string {
	if !IsValidAadhaarFormat(s) {
		return maskedPlaceholder
	}
	return "XXXX XXXX " + s[8:]
}

// NormalizeRefID strips non-digit characters from an upstream reference. The
// Aadhaar provider requires numeric references; callers may hand us values
// with separators or whitespace.
func NormalizeRefID(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
