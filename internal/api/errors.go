package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/supabase/siws/internal/api/apierrors"
	"github.com/supabase/siws/internal/observability"
	"github.com/supabase/siws/internal/siws"
	"github.com/supabase/siws/internal/utilities"
)

type (
	HTTPError = apierrors.HTTPError
	ErrorCode = apierrors.ErrorCode
)

const errorCodeHeader = "x-siws-error-code"

func badRequestError(errorCode ErrorCode, fmtString string, args ...any) *HTTPError {
	return apierrors.NewBadRequestError(errorCode, fmtString, args...)
}

func internalServerError(fmtString string, args ...any) *HTTPError {
	return apierrors.NewInternalServerError(fmtString, args...)
}

func notFoundError(errorCode ErrorCode, fmtString string, args ...any) *HTTPError {
	return apierrors.NewNotFoundError(errorCode, fmtString, args...)
}

func tooManyRequestsError(errorCode ErrorCode, fmtString string, args ...any) *HTTPError {
	return apierrors.NewTooManyRequestsError(errorCode, fmtString, args...)
}

// siwsError converts a message error into a 400 response carrying the error
// kind as its code.
func siwsError(err error) *HTTPError {
	e, ok := err.(*siws.Error)
	if !ok {
		return internalServerError("Unable to process Sign-In with Solana message").WithInternalError(err)
	}

	return badRequestError(errorCodeForKind(e.Kind), "%s", e.Error()).WithDetails(e)
}

func errorCodeForKind(kind siws.ErrorKind) ErrorCode {
	return strings.ToLower(string(kind))
}

// Recoverer is a middleware that recovers from panics, logs the panic (and a
// backtrace), and returns a HTTP 500 (Internal Server Error) status if
// possible. Recoverer prints a request ID if one is provided.
func recoverer(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}

				logEntry := observability.GetLogEntry(r)
				if logEntry != nil {
					logEntry.WithField("panic", fmt.Sprintf("%+v", rvr)).WithField("stack", string(debug.Stack())).Error("unhandled request panic")
				} else {
					fmt.Fprintf(os.Stderr, "Panic: %+v\n", rvr)
					debug.PrintStack()
				}

				se := &HTTPError{
					HTTPStatus: http.StatusInternalServerError,
					Message:    http.StatusText(http.StatusInternalServerError),
				}
				HandleResponseError(se, w, r)
			}
		}()
		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

// ErrorCause is an error interface that contains the method Cause() for returning root cause errors
type ErrorCause interface {
	Cause() error
}

func HandleResponseError(err error, w http.ResponseWriter, r *http.Request) {
	log := observability.GetLogEntry(r)
	errorID := utilities.GetRequestID(r.Context())

	switch e := err.(type) {
	case *HTTPError:
		switch {
		case e.HTTPStatus >= http.StatusInternalServerError:
			e.ErrorID = errorID
			// this will get us the stack trace too
			log.WithError(e.Cause()).Error(e.Error())
		case e.HTTPStatus == http.StatusTooManyRequests:
			log.WithError(e.Cause()).Warn(e.Error())
		default:
			log.WithError(e.Cause()).Info(e.Error())
		}

		if e.ErrorCode == "" {
			if e.HTTPStatus == http.StatusInternalServerError {
				e.ErrorCode = apierrors.ErrorCodeUnexpectedFailure
			} else {
				e.ErrorCode = apierrors.ErrorCodeUnknown
			}
		}

		w.Header().Set(errorCodeHeader, e.ErrorCode)

		if jsonErr := sendJSON(w, e.HTTPStatus, e); jsonErr != nil && jsonErr != context.DeadlineExceeded {
			log.WithError(jsonErr).Warn("Failed to send JSON on ResponseWriter")
		}

	case *siws.Error:
		HandleResponseError(siwsError(e), w, r)

	case ErrorCause:
		HandleResponseError(e.Cause(), w, r)

	default:
		log.WithError(e).Errorf("Unhandled server error: %s", e.Error())

		httpError := HTTPError{
			HTTPStatus: http.StatusInternalServerError,
			ErrorCode:  apierrors.ErrorCodeUnexpectedFailure,
			Message:    "Unexpected failure, please check server logs for more information",
			ErrorID:    errorID,
		}

		w.Header().Set(errorCodeHeader, httpError.ErrorCode)

		if jsonErr := sendJSON(w, http.StatusInternalServerError, httpError); jsonErr != nil && jsonErr != context.DeadlineExceeded {
			log.WithError(jsonErr).Warn("Failed to send JSON on ResponseWriter")
		}
	}
}
