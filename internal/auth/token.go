// ABOUTME: JWT access token encoding and decoding
// ABOUTME: HS256 only, with a process-wide secret and a unique jti per token

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MinSecretLength is the minimum HS256 secret length in bytes.
const MinSecretLength = 32

// ErrSecretTooShort is returned by NewJWTCodec for secrets under MinSecretLength.
var ErrSecretTooShort = fmt.Errorf("secret must be at least %d bytes", MinSecretLength)

// Claims is the access token payload. Subject, IssuedAt, ExpiresAt and ID
// are carried in the embedded registered claims.
type Claims struct {
	Username string  `json:"username"`
	Email    *string `json:"email"`
	jwt.RegisteredClaims
}

// NewClaims builds the claims for an identity.
func NewClaims(id *Identity) Claims {
	return Claims{
		Username:         id.Handle,
		Email:            id.Email,
		RegisteredClaims: jwt.RegisteredClaims{Subject: id.Handle},
	}
}

// JWTCodec signs and verifies access tokens.
type JWTCodec struct {
	secret []byte
	now    func() time.Time
}

// NewJWTCodec creates a codec with the given HS256 secret.
func NewJWTCodec(secret []byte) (*JWTCodec, error) {
	if len(secret) < MinSecretLength {
		return nil, ErrSecretTooShort
	}
	return &JWTCodec{secret: secret, now: time.Now}, nil
}

// Encode signs claims. IssuedAt, ExpiresAt and ID are set by the codec;
// any values already present are overwritten.
func (c *JWTCodec) Encode(claims Claims, expiresIn time.Duration) (string, error) {
	if claims.Subject == "" {
		return "", fmt.Errorf("encoding token: empty subject")
	}
	if expiresIn <= 0 {
		return "", fmt.Errorf("encoding token: non-positive lifetime %s", expiresIn)
	}

	now := c.now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(expiresIn))
	claims.ID = uuid.NewString()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature, algorithm and expiry of tokenString and returns its claims.
// Every failure wraps ErrInvalidToken; expired tokens also wrap ErrTokenExpired.
func (c *JWTCodec) Decode(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrInvalidToken)
	}
	return &claims, nil
}
