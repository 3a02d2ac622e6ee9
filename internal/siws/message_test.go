package siws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMessageFillsDefaults(t *testing.T) {
	p := validPayload()
	p.Nonce = ""
	p.IssuedAt = ""

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	m, err := NewMessageAt(p, now)
	require.NoError(t, err)

	assert.Equal(t, HeaderTypeSIP99, m.Header.Type)
	assert.True(t, IsValidNonce(m.Payload.Nonce), "generated nonce %q must be alphanumeric", m.Payload.Nonce)
	assert.Len(t, m.Payload.Nonce, nonceLength)
	assert.Equal(t, "2025-06-01T10:00:00.000Z", m.Payload.IssuedAt)

	// the caller's payload is not modified
	assert.Equal(t, "", p.Nonce)
	assert.Equal(t, "", p.IssuedAt)
}

func TestNewMessageKeepsProvidedValues(t *testing.T) {
	p := validPayload()
	p.Resources = []string{"https://example.com/a"}

	m, err := NewMessage(p)
	require.NoError(t, err)
	require.Equal(t, p, m.Payload)

	// resources are copied
	p.Resources[0] = "https://evil.example.com"
	require.Equal(t, "https://example.com/a", m.Payload.Resources[0])
}

func TestGenerateNonceIsRandom(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i += 1 {
		nonce, err := GenerateNonce()
		require.NoError(t, err)
		require.True(t, IsValidNonce(nonce))
		require.False(t, seen[nonce])
		seen[nonce] = true
	}
}

func TestPrepareMessageIsIdempotent(t *testing.T) {
	p := validPayload()
	p.IssuedAt = ""
	p.Nonce = ""

	m, err := NewMessage(p)
	require.NoError(t, err)

	first, err := m.PrepareMessage()
	require.NoError(t, err)

	time.Sleep(2 * time.Millisecond)

	second, err := m.PrepareMessage()
	require.NoError(t, err)
	require.Equal(t, first, second)

	third, err := m.ToMessage()
	require.NoError(t, err)
	require.Equal(t, first, third)
	require.Equal(t, first, m.String())
}

func TestParseMessage(t *testing.T) {
	m, err := NewMessage(validPayload())
	require.NoError(t, err)

	text, err := m.PrepareMessage()
	require.NoError(t, err)

	parsed, err := ParseMessage(text)
	require.NoError(t, err)
	require.Equal(t, m, parsed)
	require.NoError(t, parsed.Validate())

	_, err = ParseMessage("hello")
	require.ErrorIs(t, err, ErrMalformedMessage)
}

func TestInvalidMessageString(t *testing.T) {
	p := validPayload()
	p.Version = "2"

	m, err := NewMessage(p)
	require.NoError(t, err)
	require.Equal(t, "", m.String())

	_, err = m.PrepareMessage()
	require.ErrorIs(t, err, ErrInvalidMessageVersion)
}

func TestChainIDUnmarshalJSON(t *testing.T) {
	examples := []struct {
		json    string
		chainID ChainID
		err     bool
	}{
		{`{"chainId": 1}`, 1, false},
		{`{"chainId": "103"}`, 103, false},
		{`{"chainId": " 5 "}`, 5, false},
		{`{"chainId": null}`, 0, false},
		{`{}`, 0, false},
		{`{"chainId": "mainnet"}`, 0, true},
		{`{"chainId": 1.5}`, 0, true},
	}

	for _, example := range examples {
		t.Run(example.json, func(t *testing.T) {
			var p Payload
			err := json.Unmarshal([]byte(example.json), &p)
			if example.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, example.chainID, p.ChainID)
		})
	}
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Kind: InvalidMessageVersion, Field: "version", Expected: "1", Actual: "2"}
	require.Equal(t, `siws: INVALID_MESSAGE_VERSION (version): expected "1" got "2"`, err.Error())

	err = &Error{Kind: MalformedMessage, Reason: "line 3: expected empty line"}
	require.Equal(t, "siws: MALFORMED_MESSAGE: line 3: expected empty line", err.Error())
}
