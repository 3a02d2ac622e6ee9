package conf

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type APIConfiguration struct {
	Host               string
	Port               string        `envconfig:"PORT" default:"8081"`
	RequestIDHeader    string        `envconfig:"REQUEST_ID_HEADER"`
	MaxRequestDuration time.Duration `json:"max_request_duration" split_words:"true" default:"10s"`
}

func (a *APIConfiguration) Validate() error {
	if a.MaxRequestDuration < 0 {
		return fmt.Errorf("conf: API max request duration must not be negative, was %v", a.MaxRequestDuration.String())
	}

	return nil
}

// SIWSConfiguration describes the relying party that issues and verifies
// Sign-In with Solana messages.
type SIWSConfiguration struct {
	// Domain is the domain messages are issued for and verified against.
	Domain string `json:"domain" required:"true"`

	// URI is the default URI placed in prepared messages. When empty
	// https://<domain> is used.
	URI string `json:"uri"`

	ChainID   int    `json:"chain_id" split_words:"true" default:"1"`
	Statement string `json:"statement"`

	// MessageTTL is added to issuedAt to produce the expirationTime of
	// prepared messages. Zero disables expiry.
	MessageTTL time.Duration `json:"message_ttl" split_words:"true" default:"10m"`

	// ExposeVerificationErrors returns the reason a verification failed to
	// the client. Off by default so clients cannot tell a wrong nonce from a
	// bad signature.
	ExposeVerificationErrors bool `json:"expose_verification_errors" split_words:"true" default:"false"`
}

func (c *SIWSConfiguration) Validate() error {
	if c.Domain == "" {
		return errors.New("conf: SIWS domain is required")
	}

	if strings.ContainsAny(c.Domain, "#?\r\n") {
		return fmt.Errorf("conf: SIWS domain %q must not contain '#' or '?'", c.Domain)
	}

	if c.URI != "" {
		u, err := url.Parse(c.URI)
		if err != nil {
			return fmt.Errorf("conf: SIWS URI is not valid: %w", err)
		}

		if !u.IsAbs() {
			return fmt.Errorf("conf: SIWS URI %q must be absolute", c.URI)
		}
	}

	if c.MessageTTL < 0 {
		return fmt.Errorf("conf: SIWS message TTL must not be negative, was %v", c.MessageTTL.String())
	}

	return nil
}

type CORSConfiguration struct {
	AllowedHeaders []string `json:"allowed_headers" split_words:"true"`
}

func (c *CORSConfiguration) AllAllowedHeaders(defaults []string) []string {
	set := make(map[string]bool)
	for _, header := range defaults {
		set[header] = true
	}

	var result []string
	result = append(result, defaults...)

	for _, header := range c.AllowedHeaders {
		if !set[header] {
			result = append(result, header)
		}

		set[header] = true
	}

	return result
}

// GlobalConfiguration holds all the configuration that applies to all instances.
type GlobalConfiguration struct {
	API     APIConfiguration
	Logging LoggingConfig `envconfig:"LOG"`
	Tracing TracingConfig
	Metrics MetricsConfig
	CORS    CORSConfiguration `json:"cors"`
	SIWS    SIWSConfiguration `json:"siws"`

	RateLimitHeader string  `split_words:"true"`
	RateLimitVerify float64 `split_words:"true" default:"30"`
	RateLimitNonce  float64 `split_words:"true" default:"30"`
}

func loadEnvironment(filename string) error {
	var err error
	if filename != "" {
		err = godotenv.Overload(filename)
	} else {
		err = godotenv.Load()
		// handle if .env file does not exist, this is OK
		if os.IsNotExist(err) {
			return nil
		}
	}
	return err
}

// LoadGlobal loads configuration from the environment, after applying the
// optional .env style file.
func LoadGlobal(filename string) (*GlobalConfiguration, error) {
	if err := loadEnvironment(filename); err != nil {
		return nil, err
	}

	config := new(GlobalConfiguration)

	if err := envconfig.Process("siws", config); err != nil {
		return nil, err
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyDefaults sets defaults for a GlobalConfiguration
func (config *GlobalConfiguration) ApplyDefaults() error {
	if config.SIWS.URI == "" && config.SIWS.Domain != "" {
		config.SIWS.URI = "https://" + config.SIWS.Domain
	}

	if config.CORS.AllowedHeaders == nil {
		config.CORS.AllowedHeaders = []string{}
	}

	return nil
}

// Validate validates all of configuration.
func (c *GlobalConfiguration) Validate() error {
	validatables := []interface {
		Validate() error
	}{
		&c.API,
		&c.Tracing,
		&c.Metrics,
		&c.SIWS,
	}

	for _, validatable := range validatables {
		if err := validatable.Validate(); err != nil {
			return err
		}
	}

	return nil
}
