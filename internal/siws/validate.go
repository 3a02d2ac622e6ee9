package siws

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

var noncePattern = regexp.MustCompile(`^[a-zA-Z0-9]{8,}$`)

var iso8601Pattern = regexp.MustCompile(`^[0-9]+-(0[1-9]|1[012])-(0[1-9]|[12][0-9]|3[01])[Tt]([01][0-9]|2[0-3]):[0-5][0-9]:([0-5][0-9]|60)(\.[0-9]+)?([Zz]|[+-]([01][0-9]|2[0-3]):[0-5][0-9])$`)

// IsValidDomain reports whether domain is non-empty, single-line and free of
// '#' and '?'.
func IsValidDomain(domain string) bool {
	return domain != "" && !strings.ContainsAny(domain, "#?\r\n")
}

// IsValidURI reports whether uri is a syntactically valid absolute URI.
func IsValidURI(uri string) bool {
	if uri == "" || strings.ContainsAny(uri, " \t\r\n") {
		return false
	}

	u, err := url.Parse(uri)
	if err != nil {
		return false
	}

	return u.IsAbs()
}

// IsValidNonce reports whether the whole nonce is an alphanumeric run of at
// least 8 characters.
func IsValidNonce(nonce string) bool {
	return noncePattern.MatchString(nonce)
}

// IsISO8601 reports whether ts is an ISO-8601 date-time with a zone.
func IsISO8601(ts string) bool {
	return iso8601Pattern.MatchString(ts)
}

// ValidatePayload checks the payload's fields in a fixed order and returns the
// first violation.
func ValidatePayload(p *Payload) error {
	if !IsValidDomain(p.Domain) {
		return &Error{
			Kind:     InvalidDomain,
			Field:    "domain",
			Expected: "non-empty domain without '#' or '?'",
			Actual:   p.Domain,
		}
	}

	if !IsValidURI(p.URI) {
		return &Error{
			Kind:     InvalidURI,
			Field:    "uri",
			Expected: "absolute URI",
			Actual:   p.URI,
		}
	}

	if p.Version != "1" {
		return &Error{
			Kind:     InvalidMessageVersion,
			Field:    "version",
			Expected: "1",
			Actual:   p.Version,
		}
	}

	if !IsValidNonce(p.Nonce) {
		return &Error{
			Kind:     InvalidNonce,
			Field:    "nonce",
			Expected: "alphanumeric, at least 8 characters",
			Actual:   p.Nonce,
		}
	}

	timestamps := []struct {
		field string
		value string
	}{
		{"issuedAt", p.IssuedAt},
		{"expirationTime", p.ExpirationTime},
		{"notBefore", p.NotBefore},
	}

	for _, ts := range timestamps {
		if ts.value != "" && !IsISO8601(ts.value) {
			return errTimeFormat(ts.field, ts.value)
		}
	}

	return validateLines(p)
}

// validateLines rejects values the message text cannot carry: anything that
// would add a line, an empty resource bullet, or an address the parser does
// not read as base58.
func validateLines(p *Payload) error {
	if !IsValidAddress(p.Address) {
		return &Error{
			Kind:     MalformedMessage,
			Field:    "address",
			Expected: "base58 address",
			Actual:   p.Address,
		}
	}

	if strings.ContainsAny(p.Statement, "\r\n") {
		return errLineBreak("statement", p.Statement)
	}

	if strings.ContainsAny(p.RequestID, "\r\n") {
		return errLineBreak("requestId", p.RequestID)
	}

	for _, resource := range p.Resources {
		if resource == "" {
			return &Error{
				Kind:   MalformedMessage,
				Field:  "resources",
				Reason: "empty resource",
			}
		}

		if strings.ContainsAny(resource, "\r\n") {
			return errLineBreak("resources", resource)
		}
	}

	return nil
}

// IsValidAddress reports whether address is a non-empty base58 string.
func IsValidAddress(address string) bool {
	return address != "" && strings.Trim(address, base58Alphabet) == ""
}

// ParseTimestamp turns a validated ISO-8601 string into a time.Time. A leap
// second reads as the first instant of the following minute.
func ParseTimestamp(ts string) (time.Time, error) {
	ts = strings.ToUpper(ts)

	t, err := time.Parse(time.RFC3339Nano, ts)
	if err == nil {
		return t, nil
	}

	// seconds sit at T+7, after "HH:MM:"
	sep := strings.IndexByte(ts, 'T')
	if sep < 0 || len(ts) < sep+9 || ts[sep+7:sep+9] != "60" {
		return time.Time{}, err
	}

	t, leapErr := time.Parse(time.RFC3339Nano, ts[:sep+7]+"59"+ts[sep+9:])
	if leapErr != nil {
		return time.Time{}, err
	}

	return t.Add(time.Second), nil
}

// FormatTimestamp renders t the way issuedAt defaults are rendered: UTC with
// millisecond precision.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
