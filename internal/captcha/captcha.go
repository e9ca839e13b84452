// Package captcha verifies bot-mitigation challenge tokens against the
// external challenge service.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrChallengeFailed means the service rejected the token.
var ErrChallengeFailed = errors.New("captcha challenge failed")

// Verifier checks challenge tokens. Disabled when no endpoint is configured.
type Verifier struct {
	verifyURL string
	secret    string
	client    *http.Client
}

func New(verifyURL, secret string) *Verifier {
	return &Verifier{
		verifyURL: strings.TrimSpace(verifyURL),
		secret:    secret,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether verification is configured.
func (v *Verifier) Enabled() bool {
	return v.verifyURL != ""
}

// Verify posts the token to the challenge service. A network or decode error
// is an upstream failure distinct from a rejected token.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Enabled() {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return ErrChallengeFailed
	}

	form := url.Values{
		"secret":   {v.secret},
		"response": {token},
	}
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verify request: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("captcha verify response: %w", err)
	}
	if !result.Success {
		return ErrChallengeFailed
	}
	return nil
}
