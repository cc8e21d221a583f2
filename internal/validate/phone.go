package validate

import (
	"errors"
	"strings"
)

var ErrInvalidPhoneFormat = errors.New("invalid phone number")

const (
	countryCode = "260"
	localLength = 10
	intlLength  = 12
	trunkPrefix = "0"
)

var phoneStripper = strings.NewReplacer(" ", "", "-", "", "+", "")

// NormalizePhone turns +260979991334, 260979991334, 0979 991 334 and
// 0979-991-334 into 0979991334. The result is the only customer lookup key.
func NormalizePhone(raw string) (string, error) {
	p := phoneStripper.Replace(raw)
	if strings.HasPrefix(p, countryCode) && len(p) == intlLength {
		p = trunkPrefix + p[len(countryCode):]
	}
	if !strings.HasPrefix(p, trunkPrefix) || len(p) != localLength || !digitsOnly(p) {
		return "", ErrInvalidPhoneFormat
	}
	return p, nil
}

func digitsOnly(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
