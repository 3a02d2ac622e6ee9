package siws

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
)

// Signer is the wallet capability: it signs raw message bytes.
type Signer interface {
	Sign(ctx context.Context, message []byte) ([]byte, error)
}

// Ed25519Signer signs with an in-memory private key. It is meant for tests,
// tooling and server-side test wallets, not for end users.
type Ed25519Signer struct {
	PrivateKey ed25519.PrivateKey
}

// NewEd25519SignerFromBase58 decodes a base58 encoded 64-byte private key, or a
// 32-byte seed.
func NewEd25519SignerFromBase58(key string) (*Ed25519Signer, error) {
	raw := base58.Decode(key)

	switch len(raw) {
	case ed25519.PrivateKeySize:
		return &Ed25519Signer{PrivateKey: ed25519.PrivateKey(raw)}, nil
	case ed25519.SeedSize:
		return &Ed25519Signer{PrivateKey: ed25519.NewKeyFromSeed(raw)}, nil
	default:
		return nil, fmt.Errorf("siws: private key must be a base58 encoded %d-byte key or %d-byte seed, got %d bytes", ed25519.PrivateKeySize, ed25519.SeedSize, len(raw))
	}
}

func (s *Ed25519Signer) Sign(ctx context.Context, message []byte) ([]byte, error) {
	return ed25519.Sign(s.PrivateKey, message), nil
}

// Address returns the base58 encoded public key.
func (s *Ed25519Signer) Address() string {
	return base58.Encode(s.PrivateKey.Public().(ed25519.PublicKey))
}

// SignMessage signs the message's canonical text and wraps the result as a
// Signature.
func SignMessage(ctx context.Context, signer Signer, m *Message) (Signature, error) {
	text, err := m.PrepareMessage()
	if err != nil {
		return Signature{}, err
	}

	sig, err := signer.Sign(ctx, []byte(text))
	if err != nil {
		return Signature{}, err
	}

	return Signature{
		Type:  HeaderTypeSIP99,
		Value: base58.Encode(sig),
	}, nil
}
