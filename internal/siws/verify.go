package siws

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/btcsuite/btcutil/base58"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Verifier checks signed messages. The zero value reads the wall clock.
type Verifier struct {
	// Now overrides the clock used for expirationTime / notBefore checks.
	Now func() time.Time
}

func (v *Verifier) now() time.Time {
	if v != nil && v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// Verify checks that msg is bound to params.Payload's domain and nonce, that
// it is inside its validity window and that params.Signature was made over its
// canonical text by the key in msg's address. Checks run in that order and the
// first failure ends verification. Verify never panics; failures are reported
// in the result.
func (v *Verifier) Verify(ctx context.Context, msg *Message, params VerifyParams) VerificationResult {
	_, span := otel.Tracer("siws").Start(ctx, "siws.Verify")
	defer span.End()

	result := v.verify(msg, params)

	span.SetAttributes(attribute.Bool("siws.success", result.Success))
	if result.Error != nil {
		span.SetAttributes(attribute.String("siws.error_kind", string(result.Error.Kind)))
		span.SetStatus(codes.Error, string(result.Error.Kind))
	}

	return result
}

func (v *Verifier) verify(msg *Message, params VerifyParams) VerificationResult {
	fail := func(err *Error) VerificationResult {
		return VerificationResult{Success: false, Data: msg, Error: err}
	}

	if msg == nil {
		return fail(&Error{Kind: MalformedMessage, Reason: "no message to verify"})
	}

	stored := &msg.Payload

	if params.Payload.Domain != stored.Domain {
		return fail(&Error{
			Kind:     DomainMismatch,
			Field:    "domain",
			Expected: params.Payload.Domain,
			Actual:   stored.Domain,
		})
	}

	if params.Payload.Nonce != stored.Nonce {
		return fail(&Error{
			Kind:     NonceMismatch,
			Field:    "nonce",
			Expected: params.Payload.Nonce,
			Actual:   stored.Nonce,
		})
	}

	now := v.now()

	if stored.ExpirationTime != "" {
		expiresAt, err := ParseTimestamp(stored.ExpirationTime)
		if err != nil || !now.Before(expiresAt) {
			return fail(&Error{
				Kind:     ExpiredMessage,
				Field:    "expirationTime",
				Expected: "now before " + stored.ExpirationTime,
				Actual:   FormatTimestamp(now),
				Reason:   "message has expired",
			})
		}
	}

	if stored.NotBefore != "" {
		notBefore, err := ParseTimestamp(stored.NotBefore)
		if err != nil || now.Before(notBefore) {
			return fail(&Error{
				Kind:     ExpiredMessage,
				Field:    "notBefore",
				Expected: "now at or after " + stored.NotBefore,
				Actual:   FormatTimestamp(now),
				Reason:   "message is not yet valid",
			})
		}
	}

	text, err := msg.PrepareMessage()
	if err != nil {
		if serr, ok := err.(*Error); ok {
			return fail(serr)
		}
		return fail(&Error{Kind: MalformedMessage, Reason: err.Error()})
	}

	if params.Signature.Type != "" && params.Signature.Type != HeaderTypeSIP99 {
		return fail(&Error{
			Kind:     InvalidSignature,
			Field:    "signature.type",
			Expected: string(HeaderTypeSIP99),
			Actual:   string(params.Signature.Type),
		})
	}

	pubKey, sig := base58.Decode(stored.Address), base58.Decode(params.Signature.Value)

	if len(pubKey) != ed25519.PublicKeySize {
		return fail(&Error{Kind: InvalidSignature, Field: "address", Reason: "address is not a base58 encoded ed25519 public key"})
	}

	if len(sig) != ed25519.SignatureSize {
		return fail(&Error{Kind: InvalidSignature, Field: "signature", Reason: "signature is not a base58 encoded ed25519 signature"})
	}

	if !ed25519.Verify(ed25519.PublicKey(pubKey), []byte(text), sig) {
		return fail(&Error{Kind: InvalidSignature, Reason: "signature verification failed"})
	}

	return VerificationResult{Success: true, Data: msg}
}

// Verify checks the message against params using the wall clock.
func (m *Message) Verify(ctx context.Context, params VerifyParams) VerificationResult {
	var v Verifier
	return v.Verify(ctx, m, params)
}
