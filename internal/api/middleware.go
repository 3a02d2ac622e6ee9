package api

import (
	"bytes"
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/didip/tollbooth/v5"
	"github.com/didip/tollbooth/v5/limiter"
	"github.com/sirupsen/logrus"
	"github.com/supabase/siws/internal/api/apierrors"
	"github.com/supabase/siws/internal/observability"
	"github.com/supabase/siws/internal/utilities"
)

var rateLimitCounter = observability.ObtainMetricCounter("siws_rate_limit_counter", "Number of times a request rate limit has been triggered")

// newLimiter allows perFiveMinutes requests per five minutes per key.
func newLimiter(perFiveMinutes float64) *limiter.Limiter {
	return tollbooth.NewLimiter(perFiveMinutes/(60*5), &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	}).SetBurst(int(perFiveMinutes)).SetMethods([]string{http.MethodPost})
}

// limitHandler rate limits requests by the value of the configured rate
// limit header, falling back to the client IP address.
func (a *API) limitHandler(lmt *limiter.Limiter) middlewareHandler {
	return func(w http.ResponseWriter, req *http.Request) (context.Context, error) {
		c := req.Context()

		key := utilities.GetIPAddress(req)
		if limitHeader := a.config.RateLimitHeader; limitHeader != "" {
			if value := req.Header.Get(limitHeader); value != "" {
				key = value
			} else {
				observability.GetLogEntry(req).WithField("header", limitHeader).Warn("request does not have a value for the rate limiting header, limiting by IP address")
			}
		}

		if err := tollbooth.LimitByKeys(lmt, []string{req.URL.Path, key}); err != nil {
			rateLimitCounter.Add(c, 1)
			return c, tooManyRequestsError(apierrors.ErrorCodeOverRequestRateLimit, "Request rate limit reached")
		}

		return c, nil
	}
}

// timeoutResponseWriter is a http.ResponseWriter that queues up a response
// body to be sent if the serving completes before the context has exceeded its
// deadline.
type timeoutResponseWriter struct {
	sync.Mutex

	header      http.Header
	wroteHeader bool
	snapHeader  http.Header // snapshot of the header at the time WriteHeader was called
	statusCode  int
	buf         bytes.Buffer
}

func (t *timeoutResponseWriter) Header() http.Header {
	t.Lock()
	defer t.Unlock()

	return t.header
}

func (t *timeoutResponseWriter) Write(bytes []byte) (int, error) {
	t.Lock()
	defer t.Unlock()

	if !t.wroteHeader {
		t.writeHeaderLocked(http.StatusOK)
	}

	return t.buf.Write(bytes)
}

func (t *timeoutResponseWriter) WriteHeader(statusCode int) {
	t.Lock()
	defer t.Unlock()

	t.writeHeaderLocked(statusCode)
}

func (t *timeoutResponseWriter) writeHeaderLocked(statusCode int) {
	if t.wroteHeader {
		// later calls are ignored, finallyWrite uses the first snapshot
		return
	}

	t.statusCode = statusCode
	t.wroteHeader = true
	t.snapHeader = t.header.Clone()
}

func (t *timeoutResponseWriter) finallyWrite(w http.ResponseWriter) {
	t.Lock()
	defer t.Unlock()

	dst := w.Header()
	for k, vv := range t.snapHeader {
		dst[k] = vv
	}

	if !t.wroteHeader {
		t.statusCode = http.StatusOK
	}

	w.WriteHeader(t.statusCode)
	if _, err := w.Write(t.buf.Bytes()); err != nil {
		logrus.WithError(err).Warn("Write failed")
	}
}

func timeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			timeoutWriter := &timeoutResponseWriter{
				header: make(http.Header),
			}

			panicChan := make(chan any, 1)
			serverDone := make(chan struct{})
			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicChan <- p
					}
				}()

				next.ServeHTTP(timeoutWriter, r.WithContext(ctx))
				close(serverDone)
			}()

			select {
			case p := <-panicChan:
				panic(p)

			case <-serverDone:
				timeoutWriter.finallyWrite(w)

			case <-ctx.Done():
				if ctx.Err() == context.DeadlineExceeded {
					httpError := apierrors.NewHTTPError(
						http.StatusGatewayTimeout,
						apierrors.ErrorCodeRequestTimeout,
						"Processing this request timed out, please retry after a moment.",
					).WithInternalError(ctx.Err())

					HandleResponseError(httpError, w, r)
				} else {
					// the client went away, wait for the handler and
					// write out whatever it produced
					<-serverDone

					timeoutWriter.finallyWrite(w)
				}
			}
		})
	}
}
