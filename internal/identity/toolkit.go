// internal/identity/toolkit.go
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// defaultTokenLifetime is the ID token lifetime the toolkit documents.
const defaultTokenLifetime = time.Hour

// ToolkitClient calls the Identity Toolkit REST API for password sign-in.
type ToolkitClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

type signInRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type signInResponse struct {
	LocalID   string `json:"localId"`
	IDToken   string `json:"idToken"`
	ExpiresIn string `json:"expiresIn"`
}

type toolkitErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

var toolkitCodes = map[string]Code{
	"EMAIL_NOT_FOUND":             CodeUserNotFound,
	"INVALID_PASSWORD":            CodeWrongPassword,
	"INVALID_LOGIN_CREDENTIALS":   CodeWrongPassword,
	"USER_DISABLED":               CodeUserDisabled,
	"TOO_MANY_ATTEMPTS_TRY_LATER": CodeTooManyRequests,
	"INVALID_EMAIL":               CodeInvalidEmail,
}

func NewToolkitClient(baseURL, apiKey string) *ToolkitClient {
	return &ToolkitClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SignInWithPassword calls POST /v1/accounts:signInWithPassword.
func (c *ToolkitClient) SignInWithPassword(ctx context.Context, email, password string) (*Credentials, error) {
	endpoint := fmt.Sprintf("%s/v1/accounts:signInWithPassword?key=%s",
		strings.TrimSuffix(c.BaseURL, "/"), url.QueryEscape(c.APIKey))

	body, err := json.Marshal(signInRequest{Email: email, Password: password, ReturnSecureToken: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to identity toolkit failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errResp toolkitErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return nil, fmt.Errorf("identity toolkit returned %d", resp.StatusCode)
		}
		// messages look like "TOO_MANY_ATTEMPTS_TRY_LATER : Access to this account..."
		reason := strings.TrimSpace(strings.SplitN(errResp.Error.Message, ":", 2)[0])
		if code, ok := toolkitCodes[reason]; ok {
			return nil, newError(code, fmt.Errorf("identity toolkit: %s", reason))
		}
		log.Printf("[ToolkitClient] sign-in failed: %d %s", resp.StatusCode, reason)
		return nil, fmt.Errorf("identity toolkit returned %d: %s", resp.StatusCode, reason)
	}

	var result signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response from identity toolkit: %w", err)
	}

	expiresIn := defaultTokenLifetime
	if secs, err := strconv.Atoi(result.ExpiresIn); err != nil || secs <= 0 {
		log.Printf("[ToolkitClient] bad expiresIn %q, assuming %v", result.ExpiresIn, defaultTokenLifetime)
	} else {
		expiresIn = time.Duration(secs) * time.Second
	}
	return &Credentials{
		UID:       result.LocalID,
		IDToken:   result.IDToken,
		ExpiresIn: expiresIn,
	}, nil
}
