package api

import (
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/sebest/xff"
	"github.com/sirupsen/logrus"
	"github.com/supabase/siws/internal/api/apierrors"
	"github.com/supabase/siws/internal/conf"
	"github.com/supabase/siws/internal/observability"
	"github.com/supabase/siws/internal/siws"
)

const defaultVersion = "unknown version"

// API is the Sign-In with Solana relying party REST API
type API struct {
	handler  http.Handler
	config   *conf.GlobalConfiguration
	version  string
	verifier *siws.Verifier

	// overrideTime can be used to override the clock used by handlers. Should only be used in tests!
	overrideTime func() time.Time
}

func (a *API) Now() time.Time {
	if a.overrideTime != nil {
		return a.overrideTime()
	}

	return time.Now()
}

// NewAPI instantiates a new REST API
func NewAPI(globalConfig *conf.GlobalConfiguration) *API {
	return NewAPIWithVersion(globalConfig, defaultVersion)
}

// NewAPIWithVersion creates a new REST API using the specified version
func NewAPIWithVersion(globalConfig *conf.GlobalConfiguration, version string) *API {
	api := &API{config: globalConfig, version: version}
	api.verifier = &siws.Verifier{Now: api.Now}

	xffmw, _ := xff.Default()
	logger := observability.NewStructuredLogger(logrus.StandardLogger())

	r := newRouter()
	r.Use(addRequestID(globalConfig))

	// request tracing should be added only when tracing or metrics is enabled
	if globalConfig.Tracing.Enabled || globalConfig.Metrics.Enabled {
		r.UseBypass(observability.RequestTracing())
	}

	r.UseBypass(xffmw.Handler)
	r.UseBypass(logger)
	r.UseBypass(recoverer)

	if globalConfig.API.MaxRequestDuration > 0 {
		r.UseBypass(timeoutMiddleware(globalConfig.API.MaxRequestDuration))
	}

	r.Get("/health", api.HealthCheck)

	r.Route("/siws", func(r *router) {
		r.With(api.limitHandler(newLimiter(globalConfig.RateLimitNonce))).Post("/nonce", api.Nonce)
		r.Post("/prepare", api.Prepare)
		r.Post("/parse", api.Parse)
		r.With(api.limitHandler(newLimiter(globalConfig.RateLimitVerify))).Post("/verify", api.Verify)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) error {
		return notFoundError(apierrors.ErrorCodeNotFound, "Not found")
	})

	corsHandler := cors.New(cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:   globalConfig.CORS.AllAllowedHeaders([]string{"Accept", "Authorization", "Content-Type", "X-Client-IP", "X-Client-Info"}),
		ExposedHeaders:   []string{errorCodeHeader},
		AllowCredentials: true,
	})

	api.handler = corsHandler.Handler(r)
	return api
}

// ServeHTTP exposes the fully wrapped handler, mostly for tests.
func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.handler.ServeHTTP(w, r)
}

type HealthCheckResponse struct {
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// HealthCheck endpoint indicates if the siws api service is available
func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) error {
	return sendJSON(w, http.StatusOK, HealthCheckResponse{
		Version:     a.version,
		Name:        "SIWS",
		Description: "SIWS issues and verifies Sign-In with Solana messages",
	})
}
