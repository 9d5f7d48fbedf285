// Package validation holds the pure field-validation and formatting core:
// digit normalization, progressive input masks and the CPF/CNPJ check-digit
// algorithms. Nothing here touches the store or the HTTP layer.
package validation

import (
	"net/mail"
	"strings"
	"time"
)

const (
	CPFLength   = 11
	CNPJLength  = 14
	PhoneLength = 11
)

// Normalize returns the subsequence of ASCII digits in raw, truncated to
// max characters. A max of zero or less means no truncation.
func Normalize(raw string, max int) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		b.WriteRune(r)
		if max > 0 && b.Len() == max {
			break
		}
	}
	return b.String()
}

// maskBreak is a literal separator inserted after offset digits, once the
// sequence is long enough to reach past it.
type maskBreak struct {
	offset int
	sep    byte
}

var (
	cpfBreaks  = []maskBreak{{3, '.'}, {6, '.'}, {9, '-'}}
	cnpjBreaks = []maskBreak{{2, '.'}, {5, '.'}, {8, '/'}, {12, '-'}}
)

func applyMask(digits string, breaks []maskBreak) string {
	var b strings.Builder
	next := 0
	for i := 0; i < len(digits); i++ {
		if next < len(breaks) && i == breaks[next].offset {
			b.WriteByte(breaks[next].sep)
			next++
		}
		b.WriteByte(digits[i])
	}
	return b.String()
}

// FormatCPF formats a partial or complete CPF as ###.###.###-##, growing
// the separators progressively as digits are typed.
func FormatCPF(raw string) string {
	return applyMask(Normalize(raw, CPFLength), cpfBreaks)
}

// FormatCNPJ formats a partial or complete CNPJ as ##.###.###/####-##.
func FormatCNPJ(raw string) string {
	return applyMask(Normalize(raw, CNPJLength), cnpjBreaks)
}

// FormatPhone formats a Brazilian phone number as (##) #####-####. Partial
// input degrades gracefully: the area code stays open up to two digits and
// the hyphen only appears from the eighth digit on.
func FormatPhone(raw string) string {
	digits := Normalize(raw, PhoneLength)
	switch {
	case digits == "":
		return ""
	case len(digits) <= 2:
		return "(" + digits
	case len(digits) <= 7:
		return "(" + digits[:2] + ") " + digits[2:]
	default:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	}
}

// allSameDigit reports whether every byte of a non-empty digit string is
// identical. Sequences like 111.111.111-11 satisfy the modulo arithmetic
// but are not valid registrations.
func allSameDigit(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return len(digits) > 0
}

// checkDigit computes one modulo-11 check digit over digits using the given
// weight sequence. Remainders 0 and 1 map to 0, anything else to 11-r.
func checkDigit(digits string, weights []int) int {
	sum := 0
	for i, w := range weights {
		sum += int(digits[i]-'0') * w
	}
	if r := sum % 11; r >= 2 {
		return 11 - r
	}
	return 0
}

var (
	cpfWeightsFirst   = []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	cpfWeightsSecond  = []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeightsFirst  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjWeightsSecond = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// cpfCheckDigits returns the two check digits for a 9-digit CPF prefix.
func cpfCheckDigits(prefix string) (int, int) {
	first := checkDigit(prefix, cpfWeightsFirst)
	second := checkDigit(prefix+string(rune('0'+first)), cpfWeightsSecond)
	return first, second
}

// cnpjCheckDigits returns the two check digits for a 12-digit CNPJ prefix.
func cnpjCheckDigits(prefix string) (int, int) {
	first := checkDigit(prefix, cnpjWeightsFirst)
	second := checkDigit(prefix+string(rune('0'+first)), cnpjWeightsSecond)
	return first, second
}

// ValidateCPF reports whether raw contains a valid CPF. Masked and bare
// input are both accepted; any mismatch is outright rejection.
func ValidateCPF(raw string) bool {
	digits := Normalize(raw, 0)
	if len(digits) != CPFLength || allSameDigit(digits) {
		return false
	}
	first, second := cpfCheckDigits(digits[:9])
	return int(digits[9]-'0') == first && int(digits[10]-'0') == second
}

// ValidateCNPJ reports whether raw contains a valid CNPJ.
func ValidateCNPJ(raw string) bool {
	digits := Normalize(raw, 0)
	if len(digits) != CNPJLength || allSameDigit(digits) {
		return false
	}
	first, second := cnpjCheckDigits(digits[:12])
	return int(digits[12]-'0') == first && int(digits[13]-'0') == second
}

// ValidateEmail accepts a basic local@domain.tld shape.
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	return strings.Contains(email[at+1:], ".")
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(value string) (time.Time, bool) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
