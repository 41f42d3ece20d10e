package host

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Dev tokens expire after this much time.
const devTokenTTL = 12 * time.Hour

// ErrDevTokenInvalid indicates the development session token failed
// verification.
var ErrDevTokenInvalid = errors.New("host: invalid dev token")

type devClaims struct {
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// NewDevToken mints a short-lived HS256 session token for local development,
// where no shell exists to produce signed init data.
func NewDevToken(secret string, userID int64, name string, now time.Time) (string, error) {
	claims := devClaims{
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprintf("%d", userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(devTokenTTL)),
			Issuer:    "supercell-shop-dev",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// VerifyDevToken parses and validates a development session token, returning
// the identity it carries.
func VerifyDevToken(secret, raw string) (InitDataUser, error) {
	var claims devClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return InitDataUser{}, fmt.Errorf("%w: %v", ErrDevTokenInvalid, err)
	}
	var id int64
	if _, err := fmt.Sscanf(claims.Subject, "%d", &id); err != nil || id <= 0 {
		return InitDataUser{}, fmt.Errorf("%w: bad subject", ErrDevTokenInvalid)
	}
	return InitDataUser{ID: id, FirstName: claims.Name}, nil
}
