package whatsapp

import "strings"

// NormalizePhone rewrites a free-text Brazilian phone number into the
// "55" + DDD + mobile form the gateway expects:
//
//	13 digits starting with 55  -> unchanged
//	11 digits (DDD + mobile)    -> prefix 55
//	10 digits (DDD, no mobile 9) -> prefix 55, insert 9 after the area code
//
// Anything else passes through with only the non-digits stripped. That
// fallback is not guaranteed valid; the gateway rejects it downstream.
// The function is idempotent.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	clean := b.String()

	if len(clean) == 13 && strings.HasPrefix(clean, "55") {
		return clean
	}
	if len(clean) == 11 {
		return "55" + clean
	}
	if len(clean) == 10 {
		return "55" + clean[:2] + "9" + clean[2:]
	}
	return clean
}
