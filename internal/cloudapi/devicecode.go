package cloudapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// minPollInterval is the floor on the device-code polling cadence even if
// the server advertises a shorter one.
const minPollInterval = 5 * time.Second

// slowDownPenalty is the extra sleep applied on a slow_down response.
const slowDownPenalty = 5 * time.Second

// DeviceCodeEndpoints names the two URLs a device-code flow talks to.
type DeviceCodeEndpoints struct {
	DeviceAuthURL string
	TokenURL      string
}

// DeviceCodeConfig carries the client identity and scope for the flow.
type DeviceCodeConfig struct {
	ClientID string
	Scopes   []string
	Endpoints DeviceCodeEndpoints
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int64  `json:"expires_in"`
	Interval        int64  `json:"interval"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Error        string `json:"error"`
}

// PromptFunc is called once with the verification URI and user code so the
// caller can display them to the operator.
type PromptFunc func(verificationURI, userCode string)

// RunDeviceCodeFlow executes the full device-code authorization flow: it
// requests a device code, displays it via prompt, then polls the token
// endpoint, honoring authorization_pending/slow_down/fatal-error semantics
// until success or the code's advertised expiry.
func RunDeviceCodeFlow(ctx context.Context, client *http.Client, cfg DeviceCodeConfig, prompt PromptFunc) (Token, error) {
	dc, err := requestDeviceCode(ctx, client, cfg)
	if err != nil {
		return Token{}, err
	}

	prompt(dc.VerificationURI, dc.UserCode)

	interval := time.Duration(dc.Interval) * time.Second
	if interval < minPollInterval {
		interval = minPollInterval
	}
	deadline := time.Now().Add(time.Duration(dc.ExpiresIn) * time.Second)

	for {
		if time.Now().After(deadline) {
			return Token{}, fmt.Errorf("cloudapi: device code expired before authorization completed")
		}

		select {
		case <-ctx.Done():
			return Token{}, ctx.Err()
		case <-time.After(interval):
		}

		tok, errCode, err := pollToken(ctx, client, cfg, dc.DeviceCode)
		if err != nil {
			return Token{}, err
		}
		switch errCode {
		case "":
			return tok, nil
		case "authorization_pending":
			continue
		case "slow_down":
			time.Sleep(slowDownPenalty)
			continue
		default:
			return Token{}, fmt.Errorf("cloudapi: device code authorization failed: %s", errCode)
		}
	}
}

func requestDeviceCode(ctx context.Context, client *http.Client, cfg DeviceCodeConfig) (deviceCodeResponse, error) {
	form := url.Values{
		"client_id": {cfg.ClientID},
		"scope":     {strings.Join(cfg.Scopes, " ")},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoints.DeviceAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return deviceCodeResponse{}, fmt.Errorf("cloudapi: build device code request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return deviceCodeResponse{}, fmt.Errorf("cloudapi: device code request: %w", err)
	}
	defer resp.Body.Close()

	var dc deviceCodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&dc); err != nil {
		return deviceCodeResponse{}, fmt.Errorf("cloudapi: decode device code response: %w", err)
	}
	if dc.DeviceCode == "" {
		return deviceCodeResponse{}, fmt.Errorf("cloudapi: device code response missing device_code")
	}
	return dc, nil
}

func pollToken(ctx context.Context, client *http.Client, cfg DeviceCodeConfig, deviceCode string) (Token, string, error) {
	form := url.Values{
		"client_id":   {cfg.ClientID},
		"grant_type":  {"urn:ietf:params:oauth:grant-type:device_code"},
		"device_code": {deviceCode},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoints.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, "", fmt.Errorf("cloudapi: build token poll request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return Token{}, "", fmt.Errorf("cloudapi: token poll request: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Token{}, "", fmt.Errorf("cloudapi: decode token poll response: %w", err)
	}
	if tr.Error != "" {
		return Token{}, tr.Error, nil
	}

	now := time.Now()
	return Token{
		AccessToken:   tr.AccessToken,
		RefreshToken:  tr.RefreshToken,
		ExpiresAtUnix: now.Add(time.Duration(tr.ExpiresIn) * time.Second).Unix(),
	}, "", nil
}

// RefreshToken exchanges a refresh token for a new access token.
func RefreshToken(ctx context.Context, client *http.Client, cfg DeviceCodeConfig, refreshToken string) (Token, error) {
	form := url.Values{
		"client_id":     {cfg.ClientID},
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoints.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("cloudapi: build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("cloudapi: refresh request: %w", err)
	}
	defer resp.Body.Close()

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return Token{}, fmt.Errorf("cloudapi: decode refresh response: %w", err)
	}
	if tr.Error != "" {
		return Token{}, fmt.Errorf("cloudapi: refresh failed: %s", tr.Error)
	}

	now := time.Now()
	return Token{
		AccessToken:   tr.AccessToken,
		RefreshToken:  tr.RefreshToken,
		ExpiresAtUnix: now.Add(time.Duration(tr.ExpiresIn) * time.Second).Unix(),
	}, nil
}

// EnsureToken implements the full load -> refresh -> device-flow ladder.
func EnsureToken(ctx context.Context, client *http.Client, cfg DeviceCodeConfig, cachePath string, prompt PromptFunc) (Token, error) {
	cached, err := LoadToken(cachePath)
	if err != nil {
		return Token{}, err
	}

	now := time.Now()
	if cached.Valid(now) {
		return cached, nil
	}

	if cached.RefreshToken != "" {
		refreshed, err := RefreshToken(ctx, client, cfg, cached.RefreshToken)
		if err == nil {
			if saveErr := SaveToken(cachePath, refreshed); saveErr != nil {
				return Token{}, saveErr
			}
			return refreshed, nil
		}
	}

	tok, err := RunDeviceCodeFlow(ctx, client, cfg, prompt)
	if err != nil {
		return Token{}, err
	}
	if err := SaveToken(cachePath, tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}
