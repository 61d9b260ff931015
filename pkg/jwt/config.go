package jwt

import (
	"errors"
	"time"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

// DefaultTokenTTL is used when Config.TokenTTL is zero.
const DefaultTokenTTL = 12 * time.Hour

// Config holds the signing configuration for API tokens.
type Config struct {
	SecretKey string
	TokenTTL  time.Duration
}

// Enabled reports whether a signing secret is configured. The quote API runs
// unauthenticated when it is not.
func (c Config) Enabled() bool {
	return c.SecretKey != ""
}

// NewTokenServiceFromConfig creates a TokenService from configuration.
func NewTokenServiceFromConfig(cfg Config, logger logging.Logger) (*TokenService, error) {
	if !cfg.Enabled() {
		return nil, errors.New("jwt secret key is not configured")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return NewTokenService(cfg.SecretKey, ttl, logger)
}
