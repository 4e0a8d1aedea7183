// Package remote talks to an external HTTP identity provider through its
// documented token endpoint. Only the contract is consumed here; the
// provider itself is not part of this system.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/urbaninsight/insight-edge/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Provider exchanges credentials for tokens against POST {baseURL}/v1/token
// and revokes them via POST {baseURL}/v1/revoke.
type Provider struct {
	baseURL string
	httpc   *http.Client
}

func NewProvider(baseURL string, httpc *http.Client) *Provider {
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	return &Provider{baseURL: strings.TrimRight(baseURL, "/"), httpc: httpc}
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Authenticate exchanges credentials for an identity and bearer token. A 401
// from the provider maps to domain.ErrInvalidCredentials.
func (p *Provider) Authenticate(ctx context.Context, email, password string) (domain.Identity, string, time.Time, error) {
	payload, err := json.Marshal(tokenRequest{Email: email, Password: password})
	if err != nil {
		return domain.Identity{}, "", time.Time{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/token", bytes.NewReader(payload))
	if err != nil {
		return domain.Identity{}, "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return domain.Identity{}, "", time.Time{}, fmt.Errorf("identity provider: %w: %v", domain.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return domain.Identity{}, "", time.Time{}, domain.ErrInvalidCredentials
	case resp.StatusCode >= 300:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Identity{}, "", time.Time{}, fmt.Errorf("identity provider: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return domain.Identity{}, "", time.Time{}, fmt.Errorf("identity provider: decode: %w", err)
	}

	var expiry time.Time
	if tr.ExpiresIn > 0 {
		expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	identity := domain.Identity{UID: tr.UID, Email: tr.Email, DisplayName: tr.DisplayName}
	return identity, tr.AccessToken, expiry, nil
}

// Revoke tells the provider to drop the identity's tokens. Best effort.
func (p *Provider) Revoke(ctx context.Context, identity domain.Identity) error {
	payload, err := json.Marshal(map[string]string{"uid": identity.UID})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/revoke", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return err
	}
	drainClose(resp.Body)
	return nil
}

func drainClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 4096))
	_ = body.Close()
}
