package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	pkgerrors "github.com/monisha-uniforms/storefront-backend/pkg/errors"
	"github.com/monisha-uniforms/storefront-backend/pkg/metrics"
)

func newTestRESTClient(t *testing.T, handler http.HandlerFunc) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewRESTClient(config.FirebaseConfig{WebAPIKey: "test-key"}, nil)
	if err != nil {
		t.Fatalf("NewRESTClient: %v", err)
	}
	client.baseURL = srv.URL
	return client
}

func TestSignInWithPassword(t *testing.T) {
	t.Parallel()

	client := newTestRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:signInWithPassword" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("api key not forwarded")
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if payload["email"] != "a@b.c" {
			t.Errorf("email not forwarded: %v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"localId":      "u1",
			"email":        "a@b.c",
			"displayName":  "Asha",
			"idToken":      "tok",
			"refreshToken": "ref",
			"expiresIn":    "3600",
		})
	})

	session, err := client.SignInWithPassword(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("SignInWithPassword: %v", err)
	}
	if session.UserID != "u1" || session.IDToken != "tok" || session.DisplayName != "Asha" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if session.ExpiresIn.Hours() != 1 {
		t.Fatalf("expiry not parsed: %v", session.ExpiresIn)
	}
}

func TestSignInErrorMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		toolkit  string
		wantCode pkgerrors.Code
	}{
		{name: "wrong password", toolkit: "INVALID_PASSWORD", wantCode: pkgerrors.CodeUnauthorized},
		{name: "unknown email", toolkit: "EMAIL_NOT_FOUND", wantCode: pkgerrors.CodeUnauthorized},
		{name: "lockout", toolkit: "TOO_MANY_ATTEMPTS_TRY_LATER : Access temporarily disabled", wantCode: pkgerrors.CodeRateLimit},
		{name: "weak password", toolkit: "WEAK_PASSWORD : Password should be at least 6 characters", wantCode: pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			client := newTestRESTClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"message": tc.toolkit},
				})
			})
			_, err := client.SignInWithPassword(context.Background(), "a@b.c", "nope")
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != tc.wantCode {
				t.Fatalf("expected %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestFailedCallsCountAgainstRemoteMetrics(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	client := newTestRESTClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	client.calls = metrics.NewRemoteCallMetrics(registry)

	if _, err := client.SignInWithPassword(context.Background(), "a@b.c", "secret"); err == nil {
		t.Fatal("expected an error from the failing provider")
	}

	mfs, err := registry.Gather()
	if err != nil {
		t.Fatalf("gathering metrics: %v", err)
	}
	var failures float64
	for _, mf := range mfs {
		if mf.GetName() != "remote_call_failures_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "operation" && lp.GetValue() == "accounts:signInWithPassword" {
					failures = m.GetCounter().GetValue()
				}
			}
		}
	}
	if failures != 1 {
		t.Fatalf("expected one recorded failure, got %v", failures)
	}
}

func TestWrongPasswordAndUnknownEmailAreIndistinguishable(t *testing.T) {
	t.Parallel()

	messages := map[string]string{}
	for _, toolkit := range []string{"INVALID_PASSWORD", "EMAIL_NOT_FOUND"} {
		toolkit := toolkit
		client := newTestRESTClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": toolkit},
			})
		})
		_, err := client.SignInWithPassword(context.Background(), "a@b.c", "nope")
		typed := pkgerrors.As(err)
		if typed == nil {
			t.Fatalf("%s: expected typed error", toolkit)
		}
		messages[typed.Message()] = toolkit
	}
	if len(messages) != 1 {
		t.Fatalf("credential failures leak account existence: %v", messages)
	}
}

func TestChangePassword(t *testing.T) {
	t.Parallel()

	var gotToken string
	client := newTestRESTClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts:update" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotToken, _ = payload["idToken"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{"localId": "u1"})
	})

	if err := client.ChangePassword(context.Background(), "tok", "newer-secret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if gotToken != "tok" {
		t.Fatalf("id token not forwarded: %q", gotToken)
	}
}
