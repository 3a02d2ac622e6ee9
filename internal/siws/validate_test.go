package siws

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validPayload() Payload {
	return Payload{
		Domain:   "example.com",
		Address:  "4Cw1koUQtqybLFem7uqhzMBznMPGARbFS4cjaYbM9RnR",
		URI:      "https://example.com",
		Version:  "1",
		ChainID:  1,
		Nonce:    "abcdefgh12",
		IssuedAt: "2025-01-01T00:00:00.000Z",
	}
}

func TestValidatePayload(t *testing.T) {
	negativeExamples := []struct {
		mutate func(p *Payload)
		kind   ErrorKind
		field  string
	}{
		{func(p *Payload) { p.Domain = "" }, InvalidDomain, "domain"},
		{func(p *Payload) { p.Domain = "ex#ample.com" }, InvalidDomain, "domain"},
		{func(p *Payload) { p.Domain = "example.com?a=b" }, InvalidDomain, "domain"},
		{func(p *Payload) { p.Domain = "example.com\nURI: x" }, InvalidDomain, "domain"},
		{func(p *Payload) { p.URI = "" }, InvalidURI, "uri"},
		{func(p *Payload) { p.URI = "not a uri" }, InvalidURI, "uri"},
		{func(p *Payload) { p.URI = "/relative/path" }, InvalidURI, "uri"},
		{func(p *Payload) { p.Version = "2" }, InvalidMessageVersion, "version"},
		{func(p *Payload) { p.Version = "" }, InvalidMessageVersion, "version"},
		{func(p *Payload) { p.Nonce = "short1" }, InvalidNonce, "nonce"},
		{func(p *Payload) { p.Nonce = "" }, InvalidNonce, "nonce"},
		{func(p *Payload) { p.Nonce = "-abcdefgh12" }, InvalidNonce, "nonce"},
		{func(p *Payload) { p.Nonce = "abcdefgh12!" }, InvalidNonce, "nonce"},
		{func(p *Payload) { p.IssuedAt = "not-a-date" }, InvalidTimeFormat, "issuedAt"},
		{func(p *Payload) { p.IssuedAt = "x2025-01-01T00:00:00Z" }, InvalidTimeFormat, "issuedAt"},
		{func(p *Payload) { p.IssuedAt = "2025-01-01" }, InvalidTimeFormat, "issuedAt"},
		{func(p *Payload) { p.ExpirationTime = "tomorrow" }, InvalidTimeFormat, "expirationTime"},
		{func(p *Payload) { p.NotBefore = "2025-13-01T00:00:00Z" }, InvalidTimeFormat, "notBefore"},
		{func(p *Payload) { p.Address = "" }, MalformedMessage, "address"},
		{func(p *Payload) { p.Address = "0x52908400098527886E0F7030069857D2E4169EE7" }, MalformedMessage, "address"},
		{func(p *Payload) { p.Statement = "line one\nline two" }, MalformedMessage, "statement"},
		{func(p *Payload) { p.Statement = "line one\rline two" }, MalformedMessage, "statement"},
		{func(p *Payload) { p.RequestID = "abc\nNonce: zzzzzzzz99" }, MalformedMessage, "requestId"},
		{func(p *Payload) { p.Resources = []string{""} }, MalformedMessage, "resources"},
		{func(p *Payload) { p.Resources = []string{"https://example.com\n- https://evil.com"} }, MalformedMessage, "resources"},
	}

	for i, example := range negativeExamples {
		t.Run(fmt.Sprintf("negative example %d", i), func(t *testing.T) {
			p := validPayload()
			example.mutate(&p)

			err := ValidatePayload(&p)
			require.Error(t, err)

			serr, ok := err.(*Error)
			require.True(t, ok)
			require.Equal(t, example.kind, serr.Kind)
			require.Equal(t, example.field, serr.Field)
		})
	}

	positiveExamples := []func(p *Payload){
		func(p *Payload) {},
		func(p *Payload) { p.IssuedAt = "" },
		func(p *Payload) { p.IssuedAt = "2025-01-01t00:00:00z" },
		func(p *Payload) { p.IssuedAt = "2025-01-01T00:00:00+02:00" },
		func(p *Payload) { p.ExpirationTime = "2025-01-02T00:00:00.123456Z" },
		func(p *Payload) { p.NotBefore = "2024-12-31T23:59:60Z" },
		func(p *Payload) { p.URI = "urn:uuid:6e8bc430-9c3a-11d9-9669-0800200c9a66" },
		func(p *Payload) { p.Domain = "localhost:3000" },
		func(p *Payload) { p.Statement = "I accept the ServiceOrg Terms of Service" },
		func(p *Payload) { p.RequestID = "some request" },
		func(p *Payload) { p.Resources = []string{} },
	}

	for i, mutate := range positiveExamples {
		t.Run(fmt.Sprintf("positive example %d", i), func(t *testing.T) {
			p := validPayload()
			mutate(&p)
			require.NoError(t, ValidatePayload(&p))
		})
	}
}

func TestValidatePayloadOrder(t *testing.T) {
	p := validPayload()
	p.Domain = "bad#domain"
	p.Version = "2"
	p.Nonce = "x"

	err := ValidatePayload(&p)
	require.ErrorIs(t, err, ErrInvalidDomain)

	p.Domain = "example.com"
	err = ValidatePayload(&p)
	require.ErrorIs(t, err, ErrInvalidMessageVersion)
	require.Equal(t, "1", err.(*Error).Expected)
	require.Equal(t, "2", err.(*Error).Actual)
}

func TestValidatePayloadChecksLinesLast(t *testing.T) {
	p := validPayload()
	p.Address = ""
	p.Nonce = "x"

	require.ErrorIs(t, ValidatePayload(&p), ErrInvalidNonce)
}

func TestParseTimestamp(t *testing.T) {
	examples := map[string]time.Time{
		"2025-01-01T00:00:00Z":        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"2025-01-01t01:00:00.5+01:00": time.Date(2025, 1, 1, 0, 0, 0, 500000000, time.UTC),
		"2024-12-31T23:59:60Z":        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		"2999-12-31T23:59:60.25z":     time.Date(3000, 1, 1, 0, 0, 0, 250000000, time.UTC),
	}

	for ts, expected := range examples {
		t.Run(ts, func(t *testing.T) {
			require.True(t, IsISO8601(ts))

			parsed, err := ParseTimestamp(ts)
			require.NoError(t, err)
			require.True(t, expected.Equal(parsed), "got %v", parsed)
		})
	}

	_, err := ParseTimestamp("2025-01-01T00:00:61Z")
	require.Error(t, err)
}
