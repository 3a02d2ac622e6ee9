package api

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/supabase/siws/internal/api/apierrors"
	"github.com/supabase/siws/internal/observability"
	"github.com/supabase/siws/internal/siws"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var verificationCounter = observability.ObtainMetricCounter("siws_verifications", "Number of Sign-In with Solana verifications by outcome")

type NonceResponse struct {
	Nonce string `json:"nonce"`
}

// Nonce returns a fresh nonce. Nonces are not stored, the caller keeps
// track of the ones it hands out.
func (a *API) Nonce(w http.ResponseWriter, r *http.Request) error {
	nonce, err := siws.GenerateNonce()
	if err != nil {
		return internalServerError("Unable to generate nonce").WithInternalError(err)
	}

	return sendJSON(w, http.StatusOK, NonceResponse{Nonce: nonce})
}

// PrepareParams is a partial payload. ChainID is held separately so an
// explicit 0 is not replaced by the configured chain.
type PrepareParams struct {
	siws.Payload
	ChainID *siws.ChainID `json:"chainId,omitempty"`
}

type MessageResponse struct {
	Message string       `json:"message"`
	Payload siws.Payload `json:"payload"`
}

// Prepare completes a partial payload with the configured relying party
// values and returns its canonical text.
func (a *API) Prepare(w http.ResponseWriter, r *http.Request) error {
	config := a.config.SIWS

	body := &PrepareParams{}
	if err := retrieveRequestParams(r, body); err != nil {
		return err
	}

	params := &body.Payload
	if body.ChainID != nil {
		params.ChainID = *body.ChainID
	} else {
		params.ChainID = siws.ChainID(config.ChainID)
	}

	if params.Domain == "" {
		params.Domain = config.Domain
	}
	if params.URI == "" {
		params.URI = config.URI
	}
	if params.Statement == "" {
		params.Statement = config.Statement
	}
	if params.Version == "" {
		params.Version = "1"
	}

	now := a.Now()
	if params.ExpirationTime == "" && config.MessageTTL > 0 {
		issuedAt := now
		if params.IssuedAt != "" {
			if t, err := siws.ParseTimestamp(params.IssuedAt); err == nil {
				issuedAt = t
			}
		}
		params.ExpirationTime = siws.FormatTimestamp(issuedAt.Add(config.MessageTTL))
	}

	m, err := siws.NewMessageAt(*params, now)
	if err != nil {
		return internalServerError("Unable to prepare Sign-In with Solana message").WithInternalError(err)
	}

	text, err := m.PrepareMessage()
	if err != nil {
		return siwsError(err)
	}

	return sendJSON(w, http.StatusOK, MessageResponse{Message: text, Payload: m.Payload})
}

type ParseParams struct {
	Message string `json:"message"`
}

// Parse reads canonical text back into a validated payload.
func (a *API) Parse(w http.ResponseWriter, r *http.Request) error {
	params := &ParseParams{}
	if err := retrieveRequestParams(r, params); err != nil {
		return err
	}

	m, err := siws.ParseMessage(params.Message)
	if err != nil {
		return siwsError(err)
	}

	if err := m.Validate(); err != nil {
		return siwsError(err)
	}

	return sendJSON(w, http.StatusOK, MessageResponse{Message: params.Message, Payload: m.Payload})
}

type VerifyParams struct {
	Message   string         `json:"message"`
	Payload   siws.Payload   `json:"payload"`
	Signature siws.Signature `json:"signature"`
}

// Verify checks a signed message against the expected domain and nonce.
func (a *API) Verify(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	params := &VerifyParams{}
	if err := retrieveRequestParams(r, params); err != nil {
		return err
	}

	if params.Payload.Domain == "" {
		params.Payload.Domain = a.config.SIWS.Domain
	}

	var result siws.VerificationResult

	m, err := siws.ParseMessage(params.Message)
	if err != nil {
		siwsErr, ok := err.(*siws.Error)
		if !ok {
			return internalServerError("Unable to parse Sign-In with Solana message").WithInternalError(err)
		}
		result = siws.VerificationResult{Error: siwsErr}
	} else {
		result = a.verifier.Verify(ctx, m, siws.VerifyParams{
			Payload:   params.Payload,
			Signature: params.Signature,
		})
	}

	outcome := "success"
	if !result.Success {
		outcome = string(result.Error.Kind)
	}

	verificationCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))

	fields := logrus.Fields{
		"domain":  params.Payload.Domain,
		"address": params.Payload.Address,
	}
	if m != nil {
		fields["address"] = m.Payload.Address
	}

	if result.Success {
		observability.LogEntrySetFields(r, fields)
		return sendJSON(w, http.StatusOK, result)
	}

	fields["siws_error_kind"] = result.Error.Kind
	observability.LogEntrySetFields(r, fields)
	observability.GetLogEntry(r).WithError(result.Error).Info("Sign-In with Solana verification failed")

	if a.config.SIWS.ExposeVerificationErrors {
		w.Header().Set(errorCodeHeader, errorCodeForKind(result.Error.Kind))
		return sendJSON(w, http.StatusUnauthorized, result)
	}

	return apierrors.NewUnauthorizedError(apierrors.ErrorCodeInvalidCredentials, "Invalid Sign-In with Solana message or signature")
}
