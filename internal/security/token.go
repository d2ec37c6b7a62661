package security

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const leaseIssuer = "quiz-broadcast"

// LeaseClaims identifies the holder of a named lease. The registered exp claim
// is the lease deadline.
type LeaseClaims struct {
	Lease string `json:"lease"`
	jwt.RegisteredClaims
}

// GenerateLeaseToken signs a token binding owner to lease until expiresAt.
func GenerateLeaseToken(lease, owner string, issuedAt, expiresAt time.Time, secret string) (string, error) {
	claims := &LeaseClaims{
		Lease: lease,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    leaseIssuer,
			Subject:   owner,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseLeaseToken validates the signature and expiry against now. An expired
// or forged token returns an error.
func ParseLeaseToken(tokenString, secret string, now time.Time) (*LeaseClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &LeaseClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(func() time.Time { return now }), jwt.WithIssuer(leaseIssuer), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*LeaseClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid lease token")
}
