package normalize

import (
	"strings"
	"unicode"
)

const defaultCountryCode = "55"

// Digits keeps only the ASCII digits of s.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatPhone renders raw provider digits as "+CC (AA) NNNNN-NNNN" for mobile
// numbers and "+CC (AA) NNNN-NNNN" for landlines. Numbers without a country
// code get the default one. Lengths that fit neither shape are returned as
// plain digits so no digit is ever dropped.
func FormatPhone(raw string) string {
	d := Digits(raw)
	if len(d) == 10 || len(d) == 11 {
		d = defaultCountryCode + d
	}
	switch len(d) {
	case 13:
		return "+" + d[:2] + " (" + d[2:4] + ") " + d[4:9] + "-" + d[9:]
	case 12:
		return "+" + d[:2] + " (" + d[2:4] + ") " + d[4:8] + "-" + d[8:]
	default:
		return d
	}
}

// FormatDocument groups an 11-digit tax id as ###.###.###-## and a 14-digit
// company id as ##.###.###/####-##. Anything else is returned unchanged.
func FormatDocument(raw string) string {
	d := Digits(raw)
	switch len(d) {
	case 11:
		return d[:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:]
	case 14:
		return d[:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:]
	default:
		return raw
	}
}

// EmailOrSentinel substitutes the "not informed" sentinel for a missing email.
func EmailOrSentinel(email *string, sentinel string) string {
	if email == nil || strings.TrimSpace(*email) == "" {
		return sentinel
	}
	return strings.TrimSpace(*email)
}
