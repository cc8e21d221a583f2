package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reEmail  = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reID     = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reGender = regexp.MustCompile(`^(male|female|other|)$`)
)

// Email is optional on the intake form; an empty value is accepted.
func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	if len(s) > 100 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// ID validates a simple resource identifier (product ids, numeric or UUID shaped).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Name validates a displayable name with a reasonable max length.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 60 {
		return "", false
	}
	return s, true
}

// Location is a free-form delivery address.
func Location(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= 200
}

func Gender(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	return s, reGender.MatchString(s)
}

func Instruction(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, len(s) <= 500
}

// Quantity parses a whole number; clamping to the cart minimum is the cart's job.
func Quantity(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// Price parses a non-negative decimal amount.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return decimal.Zero, false
	}
	return d, true
}

// Password enforces a simple length window for login checks.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}
