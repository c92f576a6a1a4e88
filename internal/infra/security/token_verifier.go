package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wojiaofengzhongzhuifeng/count-number/internal/core/domain"
)

var (
	// ErrInvalidAccessToken indicates a malformed, unsigned or mis-addressed token.
	ErrInvalidAccessToken = errors.New("invalid access token")
	// ErrExpiredAccessToken indicates a well-formed token past its exp claim.
	ErrExpiredAccessToken = errors.New("access token expired")
)

const defaultLeeway = 30 * time.Second

// AccessClaims mirrors the claims the identity provider puts in its access tokens.
type AccessClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// VerifierOptions configures TokenVerifier.
type VerifierOptions struct {
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
	Now      func() time.Time
}

// TokenVerifier validates HS256 access tokens signed with the shared project secret.
type TokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenVerifier builds a verifier; the secret is mandatory.
func NewTokenVerifier(opts VerifierOptions) (*TokenVerifier, error) {
	if strings.TrimSpace(opts.Secret) == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}

	leeway := opts.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if issuer := strings.TrimSpace(opts.Issuer); issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(issuer))
	}
	if audience := strings.TrimSpace(opts.Audience); audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(audience))
	}
	if opts.Now != nil {
		parserOpts = append(parserOpts, jwt.WithTimeFunc(opts.Now))
	}

	return &TokenVerifier{
		secret: []byte(opts.Secret),
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

// Verify parses the raw token and returns the identity it was issued to.
func (v *TokenVerifier) Verify(raw string) (domain.Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return domain.Identity{}, ErrInvalidAccessToken
	}

	claims := &AccessClaims{}
	_, err := v.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Identity{}, ErrExpiredAccessToken
		}
		return domain.Identity{}, fmt.Errorf("%w: %v", ErrInvalidAccessToken, err)
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidAccessToken)
	}

	return domain.Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
	}, nil
}

// SignAccessToken issues an HS256 token for the given identity. Used by local tooling and tests.
func SignAccessToken(secret string, identity domain.Identity, audience string, ttl time.Duration, now time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", fmt.Errorf("jwt secret is required")
	}

	claims := AccessClaims{
		Email: identity.Email,
		Role:  identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if audience != "" {
		claims.Audience = jwt.ClaimStrings{audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
