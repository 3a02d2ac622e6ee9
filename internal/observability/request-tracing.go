package observability

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.25.0"
	"go.opentelemetry.io/otel/trace"
)

const originalUserAgentHeader = "X-Siws-Original-User-Agent"

// routePattern returns the chi route pattern of the request, or the raw path
// when the request was not routed by chi.
func routePattern(r *http.Request) (pattern string) {
	defer func() {
		if rec := recover(); rec != nil {
			logrus.WithField("error", rec).Error("unable to read chi route context, traces may be off")
			pattern = r.URL.Path
		}
	}()

	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}

	return r.URL.Path
}

type statusRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode

	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(data []byte) (int, error) {
	if w.statusCode == 0 {
		w.statusCode = http.StatusOK
	}
	return w.ResponseWriter.Write(data)
}

// RequestTracing returns a middleware that traces every request and counts
// response status codes per route. It should be one of the first middlewares
// on the router.
func RequestTracing() func(http.Handler) http.Handler {
	statusCodes, err := Meter(meterName).Int64Counter(
		"http_status_codes",
		metric.WithDescription("Number of returned HTTP status codes"),
	)
	if err != nil {
		logrus.WithError(err).Error("unable to get siws.http_status_codes counter metric")
	}

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			recorder := &statusRecorder{ResponseWriter: w}

			defer func() {
				route := routePattern(r)

				span := trace.SpanFromContext(r.Context())
				span.SetAttributes(semconv.HTTPRouteKey.String(route))

				if statusCodes != nil {
					statusCodes.Add(r.Context(), 1, metric.WithAttributes(
						attribute.Int("code", recorder.statusCode),
						semconv.HTTPRouteKey.String(route),
					))
				}
			}()

			if originalUserAgent := r.Header.Get(originalUserAgentHeader); originalUserAgent != "" {
				r.Header.Set("User-Agent", originalUserAgent)
				r.Header.Del(originalUserAgentHeader)
			}

			next.ServeHTTP(recorder, r)
		}

		otelHandler := otelhttp.NewHandler(http.HandlerFunc(fn), "api")

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// otelhttp keeps User-Agent values as attributes, so the header
			// is hidden from it and restored inside the traced handler
			if userAgent := r.UserAgent(); userAgent != "" {
				r.Header.Set(originalUserAgentHeader, userAgent)
				r.Header.Set("User-Agent", "stripped")
			}

			otelHandler.ServeHTTP(w, r)
		})
	}
}
