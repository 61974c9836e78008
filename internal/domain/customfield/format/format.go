// Package format checks that raw text values match the shape required by a
// text field's format. Validators are pure and safe for concurrent use.
package format

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"customfields/internal/core/apperror"
)

// Known formats.
const (
	Text   = "TEXT"
	Email  = "EMAIL"
	Number = "NUMBER"
	URL    = "URL"
)

// Validator checks one raw value.
type Validator func(raw string) error

var validators = map[string]Validator{
	Text:   ValidateText,
	Email:  ValidateEmail,
	Number: ValidateNumber,
	URL:    ValidateURL,
}

// Known reports whether name is a supported format.
func Known(name string) bool {
	_, ok := validators[name]
	return ok
}

// Validate runs the validator registered for name. An empty name means TEXT.
func Validate(name, raw string) error {
	if name == "" {
		name = Text
	}
	v, ok := validators[name]
	if !ok {
		return apperror.NewValidation(fmt.Sprintf("Unsupported field format: %s", name))
	}
	return v(raw)
}

// ValidateText fails only on blank input.
func ValidateText(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return apperror.NewInvalidFormat(Text, "Invalid Text format")
	}
	return nil
}

// --- Email ---

const (
	maxLocalPartLength  = 64
	maxDomainPartLength = 255

	// printable ASCII without specials ()<>@,;:'".[]\ and space
	atom = "[!#$%&*+/0-9=?A-Z^_`a-z{|}~-]+"
)

var (
	atomListPattern = regexp.MustCompile(`^` + atom + `(\.` + atom + `)*$`)
	ipDomainPattern = regexp.MustCompile(`^\[(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})\]$`)
)

// ValidateEmail checks addr as local@domain.
func ValidateEmail(addr string) error {
	if !isEmail(addr) {
		return apperror.NewInvalidFormat(Email, fmt.Sprintf("Invalid Email format: %s", addr))
	}
	return nil
}

func isEmail(addr string) bool {
	if strings.Count(addr, "@") != 1 {
		return false
	}
	local, domain, _ := strings.Cut(addr, "@")
	if local == "" || domain == "" {
		return false
	}
	if len(local) > maxLocalPartLength || !atomListPattern.MatchString(local) {
		return false
	}
	if len(domain) > maxDomainPartLength {
		return false
	}
	return atomListPattern.MatchString(domain) || isIPDomain(domain)
}

func isIPDomain(domain string) bool {
	m := ipDomainPattern.FindStringSubmatch(domain)
	if m == nil {
		return false
	}
	for _, octet := range m[1:] {
		n := 0
		for _, c := range octet {
			n = n*10 + int(c-'0')
		}
		if n > 255 {
			return false
		}
	}
	return true
}

// --- Number ---

var (
	plainIntPattern     = regexp.MustCompile(`^-?\d+$`)
	plainDecimalPattern = regexp.MustCompile(`^-?\d*[,.]\d+$`)
	spaceGroupPattern   = regexp.MustCompile(`^-?\d{1,3}( \d{3})+([,.]\d+)?$`)
	commaGroupPattern   = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// ValidateNumber accepts signed integers, decimals with ',' or '.' and
// thousands grouped by space or comma. Grouping styles cannot be mixed.
func ValidateNumber(raw string) error {
	if _, err := ParseNumber(raw); err != nil {
		return apperror.NewInvalidFormat(Number, fmt.Sprintf("Invalid Number format: %s", raw))
	}
	return nil
}

// ParseNumber converts a numeral accepted by ValidateNumber into a decimal.
func ParseNumber(raw string) (decimal.Decimal, error) {
	var canonical string
	switch {
	case plainIntPattern.MatchString(raw):
		canonical = raw
	case plainDecimalPattern.MatchString(raw):
		canonical = strings.Replace(raw, ",", ".", 1)
	case spaceGroupPattern.MatchString(raw):
		canonical = strings.Replace(strings.ReplaceAll(raw, " ", ""), ",", ".", 1)
	case commaGroupPattern.MatchString(raw):
		canonical = strings.ReplaceAll(raw, ",", "")
	default:
		return decimal.Zero, fmt.Errorf("not a number: %q", raw)
	}

	if strings.HasPrefix(canonical, "-.") {
		canonical = "-0" + canonical[1:]
	} else if strings.HasPrefix(canonical, ".") {
		canonical = "0" + canonical
	}
	return decimal.NewFromString(canonical)
}

// --- URL ---

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Hostname() == "" {
		return apperror.NewInvalidFormat(URL, fmt.Sprintf("Invalid URL: %s", raw))
	}
	if strings.ContainsAny(raw, " \t\n") {
		return apperror.NewInvalidFormat(URL, fmt.Sprintf("Invalid URL: %s", raw))
	}
	return nil
}
