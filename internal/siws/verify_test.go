package siws

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type VerifyTestSuite struct {
	suite.Suite

	pubKey  ed25519.PublicKey
	privKey ed25519.PrivateKey
	now     time.Time

	verifier *Verifier
}

func TestVerify(t *testing.T) {
	suite.Run(t, new(VerifyTestSuite))
}

func (ts *VerifyTestSuite) SetupTest() {
	var err error
	ts.pubKey, ts.privKey, err = ed25519.GenerateKey(rand.Reader)
	ts.Require().NoError(err)

	ts.now = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	ts.verifier = &Verifier{
		Now: func() time.Time {
			return ts.now
		},
	}
}

func (ts *VerifyTestSuite) payload() Payload {
	return Payload{
		Domain:   "example.com",
		Address:  base58.Encode(ts.pubKey),
		URI:      "https://example.com",
		Version:  "1",
		ChainID:  1,
		Nonce:    "abcdefgh12",
		IssuedAt: "2025-01-01T11:59:00.000Z",
	}
}

func (ts *VerifyTestSuite) sign(m *Message) Signature {
	signer := &Ed25519Signer{PrivateKey: ts.privKey}

	sig, err := SignMessage(context.Background(), signer, m)
	ts.Require().NoError(err)

	return sig
}

func (ts *VerifyTestSuite) newMessage(p Payload) *Message {
	m, err := NewMessageAt(p, ts.now)
	ts.Require().NoError(err)
	return m
}

func (ts *VerifyTestSuite) TestSuccess() {
	p := ts.payload()
	m := ts.newMessage(p)

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{
		Payload:   p,
		Signature: ts.sign(m),
	})

	ts.Require().True(result.Success)
	ts.Require().Nil(result.Error)
	ts.Require().Same(m, result.Data)
}

func (ts *VerifyTestSuite) TestSuccessWithWallClock() {
	p := ts.payload()
	p.IssuedAt = ""
	m, err := NewMessage(p)
	ts.Require().NoError(err)

	result := m.Verify(context.Background(), VerifyParams{
		Payload:   p,
		Signature: ts.sign(m),
	})
	ts.Require().True(result.Success)
}

func (ts *VerifyTestSuite) TestSuccessAfterParsing() {
	p := ts.payload()
	p.Statement = "Sign in to example.com"
	p.ExpirationTime = "2025-01-01T12:10:00Z"
	p.NotBefore = "2025-01-01T11:00:00Z"
	p.Resources = []string{"https://example.com/terms"}

	m := ts.newMessage(p)
	sig := ts.sign(m)

	text, err := m.PrepareMessage()
	ts.Require().NoError(err)

	parsed, err := ParseMessage(text)
	ts.Require().NoError(err)

	result := ts.verifier.Verify(context.Background(), parsed, VerifyParams{Payload: p, Signature: sig})
	ts.Require().True(result.Success)
}

func (ts *VerifyTestSuite) TestTamperedSignature() {
	p := ts.payload()
	m := ts.newMessage(p)
	sig := ts.sign(m)

	raw := base58.Decode(sig.Value)
	raw[10] ^= 0x01
	sig.Value = base58.Encode(raw)

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: sig})
	ts.Require().False(result.Success)
	ts.Require().Equal(InvalidSignature, result.Error.Kind)
}

func (ts *VerifyTestSuite) TestTamperedMessage() {
	p := ts.payload()
	m := ts.newMessage(p)
	sig := ts.sign(m)

	m.Payload.Statement = "I agree to transfer everything"

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: sig})
	ts.Require().False(result.Success)
	ts.Require().Equal(InvalidSignature, result.Error.Kind)
}

func (ts *VerifyTestSuite) TestWrongKey() {
	p := ts.payload()
	m := ts.newMessage(p)
	sig := ts.sign(m)

	otherKey, _, err := ed25519.GenerateKey(rand.Reader)
	ts.Require().NoError(err)

	m.Payload.Address = base58.Encode(otherKey)
	p.Address = m.Payload.Address

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: sig})
	ts.Require().False(result.Success)
	ts.Require().Equal(InvalidSignature, result.Error.Kind)
}

func (ts *VerifyTestSuite) TestDomainMismatchShortCircuits() {
	p := ts.payload()
	m := ts.newMessage(p)

	p.Domain = "attacker.com"

	// garbage that would fail decoding if it were ever looked at
	result := ts.verifier.Verify(context.Background(), m, VerifyParams{
		Payload:   p,
		Signature: Signature{Type: "unknown", Value: "0OIl not base58"},
	})

	ts.Require().False(result.Success)
	ts.Require().Equal(DomainMismatch, result.Error.Kind)
	ts.Require().Equal("attacker.com", result.Error.Expected)
	ts.Require().Equal("example.com", result.Error.Actual)
}

func (ts *VerifyTestSuite) TestEmptyDomainMismatches() {
	p := ts.payload()
	m := ts.newMessage(p)
	sig := ts.sign(m)

	p.Domain = ""

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: sig})
	ts.Require().False(result.Success)
	ts.Require().Equal(DomainMismatch, result.Error.Kind)
}

func (ts *VerifyTestSuite) TestNonceMismatch() {
	p := ts.payload()
	m := ts.newMessage(p)
	sig := ts.sign(m)

	p.Nonce = "zzzzzzzz99"

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: sig})
	ts.Require().False(result.Success)
	ts.Require().Equal(NonceMismatch, result.Error.Kind)
}

func (ts *VerifyTestSuite) TestExpired() {
	examples := []string{
		"2025-01-01T11:00:00Z",
		"2025-01-01T12:00:00Z", // equal to now
		"2025-01-01T12:59:00+02:00",
	}

	for _, expiration := range examples {
		p := ts.payload()
		p.ExpirationTime = expiration
		m := ts.newMessage(p)

		result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: ts.sign(m)})
		ts.Require().False(result.Success, expiration)
		ts.Require().Equal(ExpiredMessage, result.Error.Kind)
		ts.Require().Equal("expirationTime", result.Error.Field)
	}
}

func (ts *VerifyTestSuite) TestLeapSecondExpiry() {
	p := ts.payload()
	p.ExpirationTime = "2999-12-31T23:59:60Z"
	m := ts.newMessage(p)

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: ts.sign(m)})
	ts.Require().True(result.Success)

	p.ExpirationTime = "2024-12-31T23:59:60Z"
	m = ts.newMessage(p)

	result = ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: ts.sign(m)})
	ts.Require().False(result.Success)
	ts.Require().Equal(ExpiredMessage, result.Error.Kind)
}

func (ts *VerifyTestSuite) TestExpiredWithBadSignature() {
	p := ts.payload()
	p.ExpirationTime = "2024-01-01T00:00:00Z"
	m := ts.newMessage(p)

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: Signature{Value: "1111"}})
	ts.Require().False(result.Success)
	ts.Require().Equal(ExpiredMessage, result.Error.Kind)
}

func (ts *VerifyTestSuite) TestNotYetValid() {
	p := ts.payload()
	p.NotBefore = "2025-01-01T12:00:01Z"
	m := ts.newMessage(p)

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: ts.sign(m)})
	ts.Require().False(result.Success)
	ts.Require().Equal(ExpiredMessage, result.Error.Kind)
	ts.Require().Equal("notBefore", result.Error.Field)
	ts.Require().Equal("message is not yet valid", result.Error.Reason)

	p.NotBefore = "2025-01-01T12:00:00Z"
	m = ts.newMessage(p)

	result = ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: ts.sign(m)})
	ts.Require().True(result.Success)
}

func (ts *VerifyTestSuite) TestMalformedSignatures() {
	p := ts.payload()
	m := ts.newMessage(p)
	good := ts.sign(m)

	examples := []Signature{
		{Type: HeaderTypeSIP99, Value: ""},
		{Type: HeaderTypeSIP99, Value: "0OIl"},
		{Type: HeaderTypeSIP99, Value: base58.Encode([]byte("too short"))},
		{Type: "sip100", Value: good.Value},
	}

	for _, sig := range examples {
		result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: sig})
		ts.Require().False(result.Success)
		ts.Require().Equal(InvalidSignature, result.Error.Kind)
	}

	// an empty type is read as sip99
	good.Type = ""
	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: good})
	ts.Require().True(result.Success)
}

func (ts *VerifyTestSuite) TestMalformedAddress() {
	p := ts.payload()
	p.Address = "notakey"
	m := ts.newMessage(p)

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p, Signature: Signature{Value: "1111"}})
	ts.Require().False(result.Success)
	ts.Require().Equal(InvalidSignature, result.Error.Kind)
	ts.Require().Equal("address", result.Error.Field)
}

func (ts *VerifyTestSuite) TestInvalidStoredMessage() {
	p := ts.payload()
	p.Version = "2"
	m := ts.newMessage(p)

	result := ts.verifier.Verify(context.Background(), m, VerifyParams{Payload: p})
	ts.Require().False(result.Success)
	ts.Require().Equal(InvalidMessageVersion, result.Error.Kind)
}

func TestVerifyNilMessage(t *testing.T) {
	var v Verifier
	result := v.Verify(context.Background(), nil, VerifyParams{})
	require.False(t, result.Success)
	require.Equal(t, MalformedMessage, result.Error.Kind)
}

func TestVerifyExample(t *testing.T) {
	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	payload := Payload{
		Domain:  "example.com",
		Address: base58.Encode(pubKey),
		URI:     "https://example.com",
		Version: "1",
		ChainID: 1,
		Nonce:   "abcdefgh12",
	}

	m, err := NewMessage(payload)
	require.NoError(t, err)

	text, err := m.PrepareMessage()
	require.NoError(t, err)

	signature := Signature{
		Type:  HeaderTypeSIP99,
		Value: base58.Encode(ed25519.Sign(privKey, []byte(text))),
	}

	result := m.Verify(context.Background(), VerifyParams{Payload: payload, Signature: signature})
	require.True(t, result.Success)
}
