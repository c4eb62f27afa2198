package utils

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the operator identity fields carried by an access token.
type Claims struct {
	OperatorID   int    `json:"oid"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	AttractionID *int   `json:"aid,omitempty"`
	jwt.RegisteredClaims
}

var (
	jwtSecret []byte
	jwtTTL    = 8 * time.Hour
)

// SetJWTConfig installs the signing secret and token lifetime. Must be called
// once at start-up before any token is issued or validated.
func SetJWTConfig(secret string, ttl time.Duration) {
	jwtSecret = []byte(secret)
	if ttl > 0 {
		jwtTTL = ttl
	}
}

// GenerateJWT issues a signed HS256 token for the operator.
func GenerateJWT(operatorID int, username, name, role string, attractionID *int) (string, time.Time, error) {
	if len(jwtSecret) == 0 {
		return "", time.Time{}, errors.New("jwt secret not configured")
	}
	now := time.Now()
	exp := now.Add(jwtTTL)
	claims := Claims{
		OperatorID:   operatorID,
		Username:     username,
		Name:         name,
		Role:         role,
		AttractionID: attractionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(operatorID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return token, exp, nil
}

// ValidateJWT parses and verifies a token, rejecting other signing methods.
func ValidateJWT(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}
