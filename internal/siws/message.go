package siws

import (
	"time"
)

// Message is a SIWS message: a header plus the payload it authenticates. A
// Message is meant to be used from one goroutine at a time.
type Message struct {
	Header  Header  `json:"header"`
	Payload Payload `json:"payload"`
}

// NewMessage builds a message from a structured payload. An empty nonce is
// replaced by a freshly generated one and an empty issuedAt by the current
// time, so that every later serialization of the message is identical.
func NewMessage(p Payload) (*Message, error) {
	return NewMessageAt(p, time.Now())
}

// NewMessageAt is NewMessage with an explicit clock reading for issuedAt.
func NewMessageAt(p Payload, now time.Time) (*Message, error) {
	m := &Message{
		Header:  Header{Type: HeaderTypeSIP99},
		Payload: p.clone(),
	}

	if m.Payload.Nonce == "" {
		nonce, err := GenerateNonce()
		if err != nil {
			return nil, err
		}
		m.Payload.Nonce = nonce
	}

	if m.Payload.IssuedAt == "" {
		m.Payload.IssuedAt = FormatTimestamp(now)
	}

	return m, nil
}

// ParseMessage builds a message from its canonical text. The parsed payload is
// not validated; call Validate for that.
func ParseMessage(text string) (*Message, error) {
	p, err := ParsePayload(text)
	if err != nil {
		return nil, err
	}

	return &Message{
		Header:  Header{Type: HeaderTypeSIP99},
		Payload: *p,
	}, nil
}

// Validate checks the stored payload.
func (m *Message) Validate() error {
	return ValidatePayload(&m.Payload)
}

// ToMessage renders the version 1 canonical text. Prefer PrepareMessage, which
// picks the format from the payload version.
func (m *Message) ToMessage() (string, error) {
	if err := m.Validate(); err != nil {
		return "", err
	}

	return formatV1(&m.Payload, time.Now()), nil
}

// PrepareMessage renders the canonical text that the wallet signs.
func (m *Message) PrepareMessage() (string, error) {
	return ToCanonicalText(&m.Payload)
}

// String returns the canonical text, or an empty string when the message does
// not validate.
func (m *Message) String() string {
	text, err := m.PrepareMessage()
	if err != nil {
		return ""
	}
	return text
}
