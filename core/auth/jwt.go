package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"melodex/apperr"
)

// Roles carried in tokens. Direct song creation requires RoleAuthor.
const (
	RoleUser   = "user"
	RoleAuthor = "author"
)

// Claims is the identity a verified credential yields.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier issues and verifies bearer credentials.
type Verifier struct {
	secret []byte
	expiry time.Duration
}

// NewVerifier creates a Verifier with the given signing secret and token
// lifetime.
func NewVerifier(secret string, expiry time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), expiry: expiry}
}

// GenerateToken issues a signed token for the given identity.
func (v *Verifier) GenerateToken(userID, email, role string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "could not issue token", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a token, distinguishing expiry from any
// other rejection.
func (v *Verifier) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Wrap(apperr.KindTokenExpired, "token expired", err)
		}
		return nil, apperr.Wrap(apperr.KindUnauthorized, "invalid token", err)
	}
	if !token.Valid {
		return nil, apperr.New(apperr.KindUnauthorized, "invalid token")
	}
	return claims, nil
}
