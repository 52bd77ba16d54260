package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the acting user of a request. The zero value is anonymous.
type Identity struct {
	UserID uint64
}

func (i Identity) Anonymous() bool {
	return i.UserID == 0
}

// UserRef returns the user id as a nullable reference, nil when anonymous.
func (i Identity) UserRef() *uint64 {
	if i.Anonymous() {
		return nil
	}
	id := i.UserID
	return &id
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("token secret must not be empty")
)

// TokenVerifier validates HS256 bearer tokens issued by the upstream login
// service. The subject claim carries the numeric user id.
type TokenVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier refuses an empty secret, which would let any caller mint
// valid HS256 tokens.
func NewTokenVerifier(secret, issuer string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &TokenVerifier{secret: []byte(secret), issuer: issuer}, nil
}

// Identify parses an Authorization header value. An empty header yields the
// anonymous identity; a present but invalid one is an error.
func (v *TokenVerifier) Identify(header string) (Identity, error) {
	if header == "" {
		return Identity{}, nil
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return Identity{}, fmt.Errorf("%w: expected bearer token", ErrInvalidToken)
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return Identity{}, fmt.Errorf("%w: subject %q is not a user id", ErrInvalidToken, claims.Subject)
	}
	return Identity{UserID: id}, nil
}

// Issue signs a token for userID. Used by operator tooling and tests.
func (v *TokenVerifier) Issue(userID uint64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		Issuer:    v.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
