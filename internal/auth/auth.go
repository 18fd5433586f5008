// Package auth checks administrator credentials and issues the bearer tokens
// the API accepts.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Authenticator resolves a username/password pair to a role.
type Authenticator interface {
	Authenticate(username, password string) (Role, error)
}

type account struct {
	password string
	role     Role
}

// StaticAuthenticator checks credentials against accounts fixed at startup.
type StaticAuthenticator struct {
	accounts map[string]account
}

func NewStaticAuthenticator() *StaticAuthenticator {
	return &StaticAuthenticator{accounts: make(map[string]account)}
}

func (a *StaticAuthenticator) AddAccount(username, password string, role Role) {
	a.accounts[username] = account{password: password, role: role}
}

func (a *StaticAuthenticator) Authenticate(username, password string) (Role, error) {
	acc, ok := a.accounts[username]
	if !ok || subtle.ConstantTimeCompare([]byte(password), []byte(acc.password)) != 1 {
		return "", ErrInvalidCredentials
	}
	return acc.role, nil
}

type Claims struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (ti *TokenIssuer) Issue(username string, role Role) (string, error) {
	now := ti.now()
	claims := Claims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (ti *TokenIssuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return ti.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
