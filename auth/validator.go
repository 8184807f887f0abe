// Package auth validates bearer credentials presented to the gateway.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/upb/media-gateway/config"
	"github.com/upb/media-gateway/middleware"
)

var (
	// ErrInvalidToken is returned when the token is invalid
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired is returned when the token has expired
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidIssuer is returned when the token issuer is invalid
	ErrInvalidIssuer = errors.New("invalid issuer")
)

// Claims are the JWT claims accepted by JWTValidator
type Claims struct {
	jwt.RegisteredClaims
	Scopes []string `json:"scopes,omitempty"`
}

// StaticTokenValidator accepts one shared API token
type StaticTokenValidator struct {
	token []byte
}

// NewStaticTokenValidator creates a validator for token
func NewStaticTokenValidator(token string) *StaticTokenValidator {
	return &StaticTokenValidator{token: []byte(token)}
}

// ValidateToken compares token in constant time
func (v *StaticTokenValidator) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	if len(v.token) == 0 || subtle.ConstantTimeCompare(v.token, []byte(token)) != 1 {
		return nil, ErrInvalidToken
	}
	return &middleware.Claims{
		Subject: "api-token",
		Method:  middleware.AuthMethodToken,
	}, nil
}

// JWTValidator validates HS256 tokens signed with a shared secret
type JWTValidator struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewJWTValidator creates a JWT validator. An empty issuer skips the iss check.
func NewJWTValidator(secret, issuer string) *JWTValidator {
	return &JWTValidator{
		secret: []byte(secret),
		issuer: issuer,
		leeway: 30 * time.Second,
	}
}

// ValidateToken validates signature, expiry and issuer
func (v *JWTValidator) ValidateToken(ctx context.Context, tokenString string) (*middleware.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, fmt.Errorf("%w: %v", ErrInvalidIssuer, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &middleware.Claims{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
		Scopes:  claims.Scopes,
		Method:  middleware.AuthMethodJWT,
	}, nil
}

// ChainValidator accepts a token if any of its validators does
type ChainValidator []middleware.TokenValidator

// ValidateToken tries each validator in order and returns the last error
func (c ChainValidator) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	err := ErrInvalidToken
	for _, validator := range c {
		claims, validateErr := validator.ValidateToken(ctx, token)
		if validateErr == nil {
			return claims, nil
		}
		err = validateErr
	}
	return nil, err
}

// NewValidator builds the validator for cfg, or nil when no credential is configured
func NewValidator(cfg config.AuthConfig) middleware.TokenValidator {
	var chain ChainValidator
	if cfg.APIToken != "" {
		chain = append(chain, NewStaticTokenValidator(cfg.APIToken))
	}
	if cfg.JWTSecret != "" {
		chain = append(chain, NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer))
	}

	switch len(chain) {
	case 0:
		return nil
	case 1:
		return chain[0]
	default:
		return chain
	}
}
