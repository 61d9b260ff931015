package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingClaims    = errors.New("required claims are missing")
	ErrTokenTooLarge    = errors.New("token size exceeds maximum allowed")
	ErrUnknownRole      = errors.New("unknown role")
)

const (
	// MaxTokenSize bounds the bytes parsed from an Authorization header.
	MaxTokenSize = 8 * 1024
	// MinSecretKeyLength is the shortest accepted HMAC secret.
	MinSecretKeyLength = 32
	// Issuer is stamped on and required of every token.
	Issuer = "quotekit"
)

// Roles known to the quote API. Sales staff create quotes; admins may also
// read the quote history of any customer.
const (
	RoleSales = "sales"
	RoleAdmin = "admin"
)

// Claims are the claims carried by a quote API token.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 tokens.
type TokenService struct {
	secretKey []byte
	ttl       time.Duration
	logger    logging.Logger
	now       func() time.Time
}

// NewTokenService creates a TokenService. The secret must be at least
// MinSecretKeyLength bytes.
func NewTokenService(secretKey string, ttl time.Duration, logger logging.Logger) (*TokenService, error) {
	if len(secretKey) < MinSecretKeyLength {
		return nil, fmt.Errorf("secret key must be at least %d characters long", MinSecretKeyLength)
	}
	return &TokenService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Issue signs a token for userID with the given role.
func (s *TokenService) Issue(userID, role string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user_id is required", ErrMissingClaims)
	}
	if len(userID) > 255 {
		return "", errors.New("user_id exceeds maximum length")
	}
	if !validRole(role) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	now := s.now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   userID,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		s.logger.Error("Failed to sign token", logging.NewField("error", err))
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenString and returns its claims. Only HS256 tokens
// issued by quotekit with an expiry are accepted.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	if len(tokenString) > MaxTokenSize {
		return nil, ErrTokenTooLarge
	}
	if strings.TrimSpace(tokenString) == "" || strings.Count(tokenString, ".") != 2 {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(s.now),
	)
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secretKey, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrInvalidToken
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: exp is required", ErrMissingClaims)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: user_id is required", ErrMissingClaims)
	}
	if !validRole(claims.Role) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, claims.Role)
	}
	return claims, nil
}

func validRole(role string) bool {
	return role == RoleSales || role == RoleAdmin
}
