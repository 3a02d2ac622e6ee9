package siws

import (
	"strconv"
	"strings"
	"time"
)

const headerSuffix = " wants you to sign in with your Solana account:"

const (
	tagURI            = "URI: "
	tagVersion        = "Version: "
	tagChainID        = "Chain ID: "
	tagNonce          = "Nonce: "
	tagIssuedAt       = "Issued At: "
	tagExpirationTime = "Expiration Time: "
	tagNotBefore      = "Not Before: "
	tagRequestID      = "Request ID: "
	tagResources      = "Resources:"
	resourceBullet    = "- "
)

// messageFormat renders a validated payload into its canonical text.
type messageFormat func(p *Payload, now time.Time) string

// messageFormats maps a payload version to its text format. Versions missing
// from the table use defaultMessageFormat.
var messageFormats = map[string]messageFormat{
	"1": formatV1,
}

var defaultMessageFormat messageFormat = formatV1

func formatFor(version string) messageFormat {
	if f, ok := messageFormats[version]; ok {
		return f
	}
	return defaultMessageFormat
}

// ToCanonicalText validates p and renders it. When IssuedAt is empty the
// current time is used; p itself is not modified.
func ToCanonicalText(p *Payload) (string, error) {
	return toCanonicalTextAt(p, time.Now())
}

func toCanonicalTextAt(p *Payload, now time.Time) (string, error) {
	if err := ValidatePayload(p); err != nil {
		return "", err
	}

	return formatFor(p.Version)(p, now), nil
}

func formatV1(p *Payload, now time.Time) string {
	var sb strings.Builder

	sb.WriteString(p.Domain)
	sb.WriteString(headerSuffix)
	sb.WriteByte('\n')
	sb.WriteString(p.Address)
	sb.WriteString("\n\n")

	if p.Statement != "" {
		sb.WriteString(p.Statement)
		sb.WriteByte('\n')
	}
	sb.WriteByte('\n')

	issuedAt := p.IssuedAt
	if issuedAt == "" {
		issuedAt = FormatTimestamp(now)
	}

	sb.WriteString(tagURI + p.URI)
	sb.WriteString("\n" + tagVersion + p.Version)
	sb.WriteString("\n" + tagChainID + strconv.Itoa(int(p.ChainID)))
	sb.WriteString("\n" + tagNonce + p.Nonce)
	sb.WriteString("\n" + tagIssuedAt + issuedAt)

	if p.ExpirationTime != "" {
		sb.WriteString("\n" + tagExpirationTime + p.ExpirationTime)
	}

	if p.NotBefore != "" {
		sb.WriteString("\n" + tagNotBefore + p.NotBefore)
	}

	if p.RequestID != "" {
		sb.WriteString("\n" + tagRequestID + p.RequestID)
	}

	if p.Resources != nil {
		sb.WriteString("\n" + tagResources)
		for _, r := range p.Resources {
			sb.WriteString("\n" + resourceBullet + r)
		}
	}

	return sb.String()
}
