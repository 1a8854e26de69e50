// Package gotrue talks to the Supabase Auth (GoTrue) REST API for account
// sign-up, password sign-in and sign-out.
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/saas-billing-backend/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const system = "supabase_auth"

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// APIError is a non-2xx answer from the auth server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase auth %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase auth %d: %s", e.StatusCode, e.Message)
}

// InvalidCredentials reports whether the server refused a password grant.
func (e *APIError) InvalidCredentials() bool {
	return e.Code == "invalid_grant" || e.Code == "invalid_credentials" ||
		strings.Contains(strings.ToLower(e.Message), "invalid login credentials")
}

type errorBody struct {
	Code             any    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	anonKey    string
	serviceKey string
}

func NewClient(cfg *config.Supabase) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/") + "/auth/v1",
		anonKey:    cfg.Key,
		serviceKey: cfg.ServiceKey,
	}
}

// SignUp creates an account with the service key. Depending on the project's
// email confirmation setting the server answers with either a bare user or
// a session wrapping it; both are accepted.
func (c *Client) SignUp(ctx context.Context, email, password string) (*User, error) {
	var resp struct {
		User
		Session
	}
	creds := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, "sign_up", http.MethodPost, "/signup", c.serviceKey, c.serviceKey, creds, &resp); err != nil {
		return nil, err
	}

	user := resp.User
	if user.ID == "" {
		user = resp.Session.User
	}
	if user.ID == "" {
		return nil, fmt.Errorf("supabase auth sign-up returned no user id")
	}
	return &user, nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	creds := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, "sign_in", http.MethodPost, "/token?grant_type=password", c.anonKey, c.anonKey, creds, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Code: "invalid_grant", Message: "no session returned"}
	}
	return &session, nil
}

// SignOut revokes the session bound to accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.call(ctx, "sign_out", http.MethodPost, "/logout", c.anonKey, accessToken, nil, nil)
}

func (c *Client) call(ctx context.Context, operation, method, path, apiKey, bearer string, in, out any) (err error) {
	ctx, span := otel.Tracer("SupabaseAuthClient").Start(ctx, operation)
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.ObserveUpstream(system, operation, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, operation+" failed")
		}
	}()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal auth request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("apikey", apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("supabase auth %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseError(resp.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode auth response: %w", err)
		}
	}
	return nil
}

func parseError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: string(raw)}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}

	switch {
	case body.ErrorCode != "":
		apiErr.Code = body.ErrorCode
	case body.Error != "":
		apiErr.Code = body.Error
	default:
		if code, ok := body.Code.(string); ok {
			apiErr.Code = code
		}
	}

	for _, msg := range []string{body.Msg, body.ErrorDescription, body.Message} {
		if msg != "" {
			apiErr.Message = msg
			break
		}
	}
	return apiErr
}
