package siws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// HeaderType names the message sub-protocol.
type HeaderType string

const HeaderTypeSIP99 HeaderType = "sip99"

// Header identifies the message sub-protocol.
type Header struct {
	Type HeaderType `json:"type"`
}

// ChainID is the numeric chain identifier. It decodes from either a JSON
// number or a numeric JSON string.
type ChainID int

func (c *ChainID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("siws: chainId %s is not an integer", string(data))
	}

	*c = ChainID(v)
	return nil
}

// Payload is the authentication claim carried by a message.
type Payload struct {
	Domain         string   `json:"domain"`
	Address        string   `json:"address"`
	Statement      string   `json:"statement,omitempty"`
	URI            string   `json:"uri"`
	Version        string   `json:"version"`
	ChainID        ChainID  `json:"chainId"`
	Nonce          string   `json:"nonce"`
	IssuedAt       string   `json:"issuedAt,omitempty"`
	ExpirationTime string   `json:"expirationTime,omitempty"`
	NotBefore      string   `json:"notBefore,omitempty"`
	RequestID      string   `json:"requestId,omitempty"`
	Resources      []string `json:"resources,omitempty"`
}

// Signature is the wallet's signature over the canonical message bytes.
type Signature struct {
	Type  HeaderType `json:"type"`
	Value string     `json:"value"` // base58
}

// VerifyParams are the values the relying party expects the message to be
// bound to, plus the signature to check.
type VerifyParams struct {
	Payload   Payload   `json:"payload"`
	Signature Signature `json:"signature"`
}

// VerificationResult is the outcome of a single Verify call.
type VerificationResult struct {
	Success bool     `json:"success"`
	Data    *Message `json:"data"`
	Error   *Error   `json:"error,omitempty"`
}

func (p *Payload) clone() Payload {
	c := *p
	if p.Resources != nil {
		c.Resources = append([]string{}, p.Resources...)
	}
	return c
}
