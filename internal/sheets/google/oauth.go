package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"
)

// errOAuthNotConfigured means no OAuth client credentials are set.
var errOAuthNotConfigured = errors.New("oauth client not configured")

// ReadOAuthClient returns the OAuth client credentials from
// GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE.
func ReadOAuthClient() ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON")); v != "" {
		return []byte(v), nil
	}
	if p := strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read oauth client file: %w", err)
		}
		return b, nil
	}
	return nil, errOAuthNotConfigured
}

// OAuthConfig parses client credentials for read-only spreadsheet access.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	cfg, err := googleoauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return cfg, nil
}

func readOAuthToken() (*oauth2.Token, error) {
	var b []byte
	switch {
	case strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_JSON")) != "":
		b = []byte(os.Getenv("GOOGLE_OAUTH_TOKEN_JSON"))
	case strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")) != "":
		var err error
		b, err = os.ReadFile(strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")))
		if err != nil {
			return nil, fmt.Errorf("read oauth token file: %w", err)
		}
	default:
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	return &tok, nil
}

// oauthHTTPClient returns a client that refreshes the stored user token,
// or errOAuthNotConfigured.
func oauthHTTPClient(ctx context.Context) (*http.Client, error) {
	clientJSON, err := ReadOAuthClient()
	if err != nil {
		return nil, err
	}
	cfg, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}
	tok, err := readOAuthToken()
	if err != nil {
		return nil, err
	}
	return cfg.Client(ctx, tok), nil
}
