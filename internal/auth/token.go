package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/oklog/ulid/v2"

	"github.com/pokecatch/pokecatch/internal/model"
)

// TokenTTL is the lifetime of an issued bearer token.
const TokenTTL = time.Hour

// Token verification failures. All of them surface as 401 to clients.
var (
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenSignature = errors.New("token signature is invalid")
	ErrTokenExpired   = errors.New("token has expired")
	ErrEmptySecret    = errors.New("token secret must not be empty")
)

// TokenIssuer signs and verifies HS256 bearer tokens carrying a user id.
// Tokens are stateless; nothing is persisted.
type TokenIssuer struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption configures a TokenIssuer.
type TokenOption func(*TokenIssuer)

// WithTokenClock overrides the time source used by Issue and Verify.
func WithTokenClock(now func() time.Time) TokenOption {
	return func(i *TokenIssuer) { i.now = now }
}

// NewTokenIssuer creates an issuer for the given signing secret.
func NewTokenIssuer(secret string, opts ...TokenOption) (*TokenIssuer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	i := &TokenIssuer{
		secret: []byte(secret),
		now:    time.Now,
		// Expiry is checked in VerifyAt against an explicit time.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue creates a token for userID valid for TokenTTL from now and returns
// it with its expiry.
func (i *TokenIssuer) Issue(userID string) (string, time.Time, error) {
	return i.IssueAt(userID, i.now())
}

// IssueAt creates a token for userID issued at now. The token expires at
// exactly now+TokenTTL, which is also returned.
func (i *TokenIssuer) IssueAt(userID string, now time.Time) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("issue token: %w", ErrTokenMalformed)
	}

	expires := now.Add(TokenTTL)
	c := &tokenClaims{
		ID:        ulid.Make().String(),
		Subject:   userID,
		IssuedAt:  formatNumericDate(now),
		ExpiresAt: formatNumericDate(expires),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks a token at the current time.
func (i *TokenIssuer) Verify(token string) (*model.AuthContext, error) {
	return i.VerifyAt(token, i.now())
}

// VerifyAt checks the token signature, then that now is before its expiry.
// It returns ErrTokenMalformed, ErrTokenSignature or ErrTokenExpired.
func (i *TokenIssuer) VerifyAt(token string, now time.Time) (*model.AuthContext, error) {
	if token == "" {
		return nil, ErrTokenMalformed
	}

	c := &tokenClaims{}
	_, err := i.parser.ParseWithClaims(token, c, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, classifyParseError(err)
	}

	if c.Subject == "" || c.ExpiresAt == "" {
		return nil, ErrTokenMalformed
	}
	expires, err := parseNumericDate(c.ExpiresAt)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	if !now.Before(expires) {
		return nil, ErrTokenExpired
	}

	authCtx := &model.AuthContext{
		UserID:    c.Subject,
		ExpiresAt: expires,
	}
	if c.IssuedAt != "" {
		if issued, err := parseNumericDate(c.IssuedAt); err == nil {
			authCtx.IssuedAt = issued
		}
	}
	return authCtx, nil
}

func classifyParseError(err error) error {
	var vErr *jwt.ValidationError
	if !errors.As(err, &vErr) {
		return ErrTokenMalformed
	}

	switch {
	case vErr.Errors&jwt.ValidationErrorMalformed != 0:
		return ErrTokenMalformed
	case vErr.Errors&(jwt.ValidationErrorSignatureInvalid|jwt.ValidationErrorUnverifiable) != 0:
		return ErrTokenSignature
	default:
		return ErrTokenMalformed
	}
}
