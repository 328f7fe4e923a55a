// Package badge issues signed verification badges. A consuming service can
// validate the assertion offline instead of calling back for every display.
package badge

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "praman/pkg/domain-errors"
)

// Claims is the badge assertion payload. It carries only masked data.
type Claims struct {
	UserID     string `json:"user_id"`
	Type       string `json:"verification_type"`
	MaskedID   string `json:"masked_id"`
	VerifiedAt int64  `json:"verified_at"`
	jwt.RegisteredClaims
}

// Signer creates and validates badge assertions.
type Signer struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// NewSigner constructs a badge signer. Badges are short-lived display
// artifacts; the default TTL is 24 hours.
func NewSigner(signingKey string, issuer string) *Signer {
	return &Signer{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		ttl:        24 * time.Hour,
	}
}

// Sign issues a badge assertion for a verified user.
func (s *Signer) Sign(userID, verificationType, maskedID string, verifiedAt time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:     userID,
		Type:       verificationType,
		MaskedID:   maskedID,
		VerifiedAt: verifiedAt.Unix(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Verify validates a badge assertion and returns its claims.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeAuthentication, "invalid badge token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, dErrors.New(dErrors.CodeAuthentication, "invalid badge token")
	}
	return claims, nil
}
