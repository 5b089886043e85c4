// Package cloudapi drives a zero-download OneDrive-style cloud organizer:
// OAuth2 device-code auth, delta-cursor scanning, and metadata-only moves.
// The consumer-facing shape (DeltaFetcher/ItemClient/TokenSource
// decomposition) follows the corpus's onedrive-go sync engine
// (internal/sync/types.go) — accept small interfaces, return structs, keep
// orchestration decoupled from the concrete Graph-shaped HTTP client.
package cloudapi

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// refreshMargin is how far ahead of expiry a token is proactively refreshed,
// on top of oauth2.Token's own built-in expiry slack.
const refreshMargin = 5 * time.Minute

// Token is the on-disk cache shape spec.md names (access_token,
// refresh_token, expires_at_unix). The device-code flow itself talks to a
// Microsoft Graph-shaped provider and is hand-rolled over net/http — the
// only OAuth2-adjacent library in the corpus is golang.org/x/oauth2 (pulled
// in transitively for perkeep's Google Drive/Cloud Storage backends), so
// base expiry validity is delegated to oauth2.Token.Valid rather than
// reimplemented, with refreshMargin layered on top.
type Token struct {
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
	ExpiresAtUnix int64  `json:"expires_at_unix"`
}

func (t Token) asOAuth2() oauth2.Token {
	return oauth2.Token{AccessToken: t.AccessToken, Expiry: time.Unix(t.ExpiresAtUnix, 0)}
}

// ExpiringSoon reports whether the token is within refreshMargin of expiry.
func (t Token) ExpiringSoon(now time.Time) bool {
	return now.Add(refreshMargin).Unix() >= t.ExpiresAtUnix
}

// Valid reports whether t has a nonempty access token that oauth2 considers
// unexpired and that is not within refreshMargin of expiring.
func (t Token) Valid(now time.Time) bool {
	return t.asOAuth2().Valid() && !t.ExpiringSoon(now)
}

// LoadToken reads a cached token from path. A missing file is not an error;
// it returns a zero Token.
func LoadToken(path string) (Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Token{}, nil
		}
		return Token{}, fmt.Errorf("cloudapi: read token cache %s: %w", path, err)
	}
	var t Token
	if err := json.Unmarshal(data, &t); err != nil {
		return Token{}, fmt.Errorf("cloudapi: decode token cache %s: %w", path, err)
	}
	return t, nil
}

// SaveToken persists t to path atomically (sibling temp file + rename, same
// idiom used throughout this module for crash-safe writes).
func SaveToken(path string, t Token) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("cloudapi: encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("cloudapi: create config dir: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("cloudapi: write token cache: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cloudapi: rename token cache into place: %w", err)
	}
	return nil
}

// ClearToken removes a cached token file. Logout calls this; a missing file
// is not an error.
func ClearToken(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cloudapi: remove token cache: %w", err)
	}
	return nil
}
