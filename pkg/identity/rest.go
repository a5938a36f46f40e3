package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/metrics"
)

const identityToolkitBase = "https://identitytoolkit.googleapis.com/v1"

// Session is the provider's answer to a successful password sign-in.
type Session struct {
	UserID       string
	Email        string
	DisplayName  string
	IDToken      string
	RefreshToken string
	ExpiresIn    time.Duration
}

// PasswordClient drives the email+password flows the admin SDK does not
// expose. Satisfied by RESTClient.
type PasswordClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	ChangePassword(ctx context.Context, idToken, newPassword string) error
}

// RESTClient talks to the Identity Toolkit REST surface with the project's
// web API key.
type RESTClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	calls      *metrics.RemoteCallMetrics
}

// NewRESTClient builds the password-flow client. calls may be nil.
func NewRESTClient(cfg config.FirebaseConfig, calls *metrics.RemoteCallMetrics) (*RESTClient, error) {
	if cfg.WebAPIKey == "" {
		return nil, fmt.Errorf("firebase web api key is required")
	}
	return &RESTClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    identityToolkitBase,
		apiKey:     cfg.WebAPIKey,
		calls:      calls,
	}, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *RESTClient) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	payload := map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}
	var result struct {
		LocalID      string `json:"localId"`
		Email        string `json:"email"`
		DisplayName  string `json:"displayName"`
		IDToken      string `json:"idToken"`
		RefreshToken string `json:"refreshToken"`
		ExpiresIn    string `json:"expiresIn"`
	}
	if err := c.post(ctx, "accounts:signInWithPassword", payload, &result); err != nil {
		return Session{}, err
	}
	session := Session{
		UserID:       result.LocalID,
		Email:        result.Email,
		DisplayName:  result.DisplayName,
		IDToken:      result.IDToken,
		RefreshToken: result.RefreshToken,
	}
	if secs, err := time.ParseDuration(result.ExpiresIn + "s"); err == nil {
		session.ExpiresIn = secs
	}
	return session, nil
}

// ChangePassword sets a new password for the session's account. The caller
// must hold a fresh ID token; re-authenticate first.
func (c *RESTClient) ChangePassword(ctx context.Context, idToken, newPassword string) error {
	payload := map[string]any{
		"idToken":           idToken,
		"password":          newPassword,
		"returnSecureToken": false,
	}
	return c.post(ctx, "accounts:update", payload, &struct{}{})
}

func (c *RESTClient) post(ctx context.Context, endpoint string, payload, out any) (err error) {
	done := c.calls.Track("identity", endpoint)
	defer func() { done(err) }()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", endpoint, err)
	}
	u := fmt.Sprintf("%s/%s?key=%s", c.baseURL, endpoint, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemote, err, "calling identity provider")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return toolkitError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemote, err, "decoding identity provider response")
	}
	return nil
}

// toolkitError maps the toolkit's error strings onto the service taxonomy.
// Credential failures are reported uniformly so the response does not leak
// whether the email exists.
func toolkitError(resp *http.Response) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)

	code := body.Error.Message
	switch {
	case code == "EMAIL_NOT_FOUND",
		code == "INVALID_PASSWORD",
		code == "INVALID_LOGIN_CREDENTIALS",
		code == "USER_DISABLED":
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	case code == "EMAIL_EXISTS":
		return pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	case strings.HasPrefix(code, "TOO_MANY_ATTEMPTS"):
		return pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later")
	case strings.HasPrefix(code, "WEAK_PASSWORD"):
		return pkgerrors.New(pkgerrors.CodeValidation, "password is too weak")
	case code == "INVALID_ID_TOKEN", code == "CREDENTIAL_TOO_OLD_LOGIN_AGAIN", code == "TOKEN_EXPIRED":
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired, sign in again")
	}
	return pkgerrors.New(pkgerrors.CodeRemote, fmt.Sprintf("identity provider returned %s", resp.Status))
}
