// Package local is a development and test stand-in for the external identity
// provider. It implements the same contract the production provider exposes:
// credentials in, identity plus short-lived bearer token out.
package local

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

type account struct {
	identity     domain.Identity
	passwordHash []byte
}

// Provider authenticates seeded accounts and mints HS256 tokens.
type Provider struct {
	secret   string
	tokenTTL time.Duration
	now      func() time.Time

	mu       sync.RWMutex
	accounts map[string]account
}

// NewProvider creates an empty Provider. Accounts are added with Seed.
func NewProvider(secret string, tokenTTL time.Duration) *Provider {
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &Provider{
		secret:   secret,
		tokenTTL: tokenTTL,
		now:      time.Now,
		accounts: make(map[string]account),
	}
}

// WithClock injects the time source. Intended for tests.
func (p *Provider) WithClock(now func() time.Time) *Provider {
	p.now = now
	return p
}

// Seed registers an account. The password is stored as a bcrypt hash.
func (p *Provider) Seed(email, password, displayName string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[email] = account{
		identity: domain.Identity{
			UID:         uuid.NewString(),
			Email:       email,
			DisplayName: displayName,
		},
		passwordHash: hash,
	}
	return nil
}

// Authenticate checks the credentials and mints a bearer token carrying the
// identity and an exp claim.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (domain.Identity, string, time.Time, error) {
	if email == "" || password == "" {
		return domain.Identity{}, "", time.Time{}, domain.ErrInvalidCredentials
	}

	p.mu.RLock()
	acc, ok := p.accounts[email]
	p.mu.RUnlock()
	if !ok {
		return domain.Identity{}, "", time.Time{}, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)) != nil {
		return domain.Identity{}, "", time.Time{}, domain.ErrInvalidCredentials
	}

	expiry := p.now().Add(p.tokenTTL)
	claims := jwt.MapClaims{
		"sub":   acc.identity.UID,
		"email": acc.identity.Email,
		"name":  acc.identity.DisplayName,
		"exp":   expiry.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(p.secret))
	if err != nil {
		return domain.Identity{}, "", time.Time{}, err
	}

	return acc.identity, token, expiry, nil
}

// Revoke is a no-op: local tokens are stateless and expire on their own.
func (p *Provider) Revoke(ctx context.Context, identity domain.Identity) error {
	return nil
}
