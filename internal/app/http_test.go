package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docboard/api/internal/auth"
	"docboard/api/internal/realtime"
	"docboard/api/internal/store"
	"docboard/api/internal/stream"
	"golang.org/x/crypto/bcrypt"
)

func serve(t *testing.T, server *HTTPServer, method, path, token string, body io.Reader) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()

	server.Handler().ServeHTTP(rr, req)

	var payload map[string]any
	if rr.Body.Len() > 0 {
		if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
			t.Fatalf("parse response: %v body=%s", err, rr.Body.String())
		}
	}
	return rr, payload
}

func assertUnauthorizedCode(t *testing.T, rr *httptest.ResponseRecorder, payload map[string]any) {
	t.Helper()
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d body=%s", rr.Code, rr.Body.String())
	}
	if payload["code"] != "UNAUTHORIZED" {
		t.Fatalf("expected code UNAUTHORIZED, got %v", payload["code"])
	}
}

func TestProtectedRouteWithoutBearerReturnsUnauthorized(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, Deps{}), "*", nil)

	for _, path := range []string{"/api/dashboard", "/api/documents", "/api/inbox", "/api/search?q=x"} {
		rr, payload := serve(t, server, http.MethodGet, path, "", nil)
		assertUnauthorizedCode(t, rr, payload)
	}
}

func TestProtectedRouteWithInvalidBearerReturnsUnauthorized(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, Deps{}), "*", nil)

	rr, payload := serve(t, server, http.MethodGet, "/api/documents", "definitely-not-a-token", nil)

	assertUnauthorizedCode(t, rr, payload)
}

func TestProtectedRouteWithExpiredBearerReturnsUnauthorized(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, Deps{}), "*", nil)

	token, err := auth.IssueToken([]byte("test-secret"), auth.Claims{
		Sub:   "usr_avery",
		Name:  "Avery",
		Email: "avery@example.com",
		JTI:   "jti-expired",
		Exp:   time.Now().Add(-1 * time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	rr, payload := serve(t, server, http.MethodGet, "/api/documents", token, nil)

	assertUnauthorizedCode(t, rr, payload)
}

func TestSignInFlow(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	verified := true
	fs := &fakeStore{
		getUserByEmailFn: func(_ context.Context, email string) (store.User, error) {
			user := testUser
			user.PasswordHash = string(hash)
			user.IsEmailVerified = verified
			return user, nil
		},
		getUserByIDFn: func(context.Context, string) (store.User, error) { return testUser, nil },
	}
	server := NewHTTPServer(newTestService(fs, Deps{}), "*", nil)

	t.Run("wrong password", func(t *testing.T) {
		rr, payload := serve(t, server, http.MethodPost, "/api/auth/signin", "",
			strings.NewReader(`{"email":"avery@example.com","password":"nope"}`))
		if rr.Code != http.StatusUnauthorized || payload["code"] != "INVALID_CREDENTIALS" {
			t.Fatalf("unexpected response %d %v", rr.Code, payload)
		}
	})

	t.Run("signed in", func(t *testing.T) {
		rr, payload := serve(t, server, http.MethodPost, "/api/auth/signin", "",
			strings.NewReader(`{"email":"avery@example.com","password":"correct horse"}`))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
		}
		token, _ := payload["accessToken"].(string)
		if token == "" || payload["refreshToken"] == "" {
			t.Fatalf("expected tokens, got %v", payload)
		}

		rr, payload = serve(t, server, http.MethodGet, "/api/session", token, nil)
		if rr.Code != http.StatusOK || payload["authenticated"] != true {
			t.Fatalf("expected authenticated session, got %v", payload)
		}
		user := payload["user"].(map[string]any)
		if user["email"] != "avery@example.com" || user["color"] == "" {
			t.Fatalf("unexpected user %v", user)
		}
	})

	t.Run("unverified", func(t *testing.T) {
		verified = false
		defer func() { verified = true }()
		rr, payload := serve(t, server, http.MethodPost, "/api/auth/signin", "",
			strings.NewReader(`{"email":"avery@example.com","password":"correct horse"}`))
		if rr.Code != http.StatusForbidden || payload["code"] != "EMAIL_NOT_VERIFIED" {
			t.Fatalf("unexpected response %d %v", rr.Code, payload)
		}
	})
}

func TestSignUpReturnsDevTokenWithoutSMTP(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, Deps{}), "*", nil)

	rr, payload := serve(t, server, http.MethodPost, "/api/auth/signup", "",
		strings.NewReader(`{"email":"new@example.com","password":"long enough password","displayName":"New"}`))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if token, _ := payload["devVerificationToken"].(string); token == "" {
		t.Fatalf("expected dev verification token, got %v", payload)
	}
}

func TestAuthTokenEndpoints(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, Deps{}), "*", nil)

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{name: "blank verification token", path: "/api/auth/verify-email", body: `{"token":" "}`, status: http.StatusBadRequest, code: "VERIFICATION_FAILED"},
		{name: "unknown reset token", path: "/api/auth/reset-password", body: `{"token":"bogus","newPassword":"long enough"}`, status: http.StatusBadRequest, code: "RESET_FAILED"},
		{name: "malformed body", path: "/api/auth/signin", body: `{`, status: http.StatusBadRequest, code: "INVALID_BODY"},
		{name: "unknown action", path: "/api/auth/impersonate", body: `{}`, status: http.StatusNotFound, code: "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, payload := serve(t, server, http.MethodPost, tc.path, "", strings.NewReader(tc.body))
			if rr.Code != tc.status || payload["code"] != tc.code {
				t.Fatalf("expected %d %s, got %d %v", tc.status, tc.code, rr.Code, payload)
			}
		})
	}

	t.Run("reset request for unknown email", func(t *testing.T) {
		rr, payload := serve(t, server, http.MethodPost, "/api/auth/reset-password/request", "",
			strings.NewReader(`{"email":"nobody@example.com"}`))
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if _, leaked := payload["devResetToken"]; leaked {
			t.Fatalf("unknown email must not yield a token, got %v", payload)
		}
	})
}

func TestSessionAnonymous(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, Deps{}), "*", nil)

	rr, payload := serve(t, server, http.MethodGet, "/api/session", "", nil)

	if rr.Code != http.StatusOK || payload["authenticated"] != false {
		t.Fatalf("unexpected response %d %v", rr.Code, payload)
	}
}

type failingReader struct {
	t *testing.T
}

func (r failingReader) Read([]byte) (int, error) {
	r.t.Errorf("request body must not be read")
	return 0, io.EOF
}

func TestRealtimeAuthAnonymousIsRejectedUnread(t *testing.T) {
	called := false
	provider := &fakeRealtime{
		identifyFn: func(context.Context, realtime.Identity) (int, []byte, error) {
			called = true
			return http.StatusOK, nil, nil
		},
	}
	server := NewHTTPServer(newTestService(&fakeStore{}, Deps{Realtime: provider}), "*", nil)

	req := httptest.NewRequest(http.MethodPost, "/api/realtime/auth", failingReader{t: t})
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rr.Body.String())
	}
	if called {
		t.Fatalf("provider must not be called for anonymous callers")
	}
}

func TestRealtimeAuthRelaysProviderResponse(t *testing.T) {
	var got realtime.Identity
	provider := &fakeRealtime{
		identifyFn: func(_ context.Context, identity realtime.Identity) (int, []byte, error) {
			got = identity
			return http.StatusTeapot, []byte(`{"token":"opaque"}`), nil
		},
	}
	svc := newTestService(&fakeStore{}, Deps{Realtime: provider})
	server := NewHTTPServer(svc, "*", nil)
	session := signIn(t, svc)

	req := httptest.NewRequest(http.MethodPost, "/api/realtime/auth", strings.NewReader(`{"room":"doc-1"}`))
	req.Header.Set("Authorization", "Bearer "+session.Token)
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected provider status, got %d", rr.Code)
	}
	if rr.Body.String() != `{"token":"opaque"}` {
		t.Fatalf("expected verbatim body, got %q", rr.Body.String())
	}
	if got.UserID != testUser.Email || len(got.GroupIDs) != 0 {
		t.Fatalf("unexpected identity %+v", got)
	}
	if got.UserInfo.Color != realtime.UserColor(testUser.ID) || got.UserInfo.Name != "Avery" {
		t.Fatalf("unexpected user info %+v", got.UserInfo)
	}
}

func TestDocumentNotFoundViews(t *testing.T) {
	svc := newTestService(&fakeStore{}, Deps{})
	server := NewHTTPServer(svc, "*", nil)

	cases := []struct {
		name   string
		token  string
		action string
		label  string
	}{
		{name: "anonymous", token: "", action: "sign_in", label: "Sign In to Access Documents"},
		{name: "signed in", token: signIn(t, svc).Token, action: "return_to_dashboard", label: "Return to Dashboard"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr, payload := serve(t, server, http.MethodGet, "/api/documents/missing", tc.token, nil)
			if rr.Code != http.StatusNotFound || payload["code"] != "DOCUMENT_NOT_FOUND" {
				t.Fatalf("unexpected response %d %v", rr.Code, payload)
			}
			action := payload["details"].(map[string]any)["action"].(map[string]any)
			if action["kind"] != tc.action || action["label"] != tc.label {
				t.Fatalf("unexpected action %v", action)
			}
		})
	}
}

func TestGetDocumentReturnsAccess(t *testing.T) {
	fs := &fakeStore{
		getDocumentAccessFn: accessFor(map[string]string{testUser.Email: store.AccessViewer}),
	}
	svc := newTestService(fs, Deps{})
	server := NewHTTPServer(svc, "*", nil)

	rr, payload := serve(t, server, http.MethodGet, "/api/documents/doc-1", signIn(t, svc).Token, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if payload["access"] != "viewer" || payload["href"] != "/documents/doc-1" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestCreateDocumentWithoutBody(t *testing.T) {
	svc := newTestService(&fakeStore{}, Deps{})
	server := NewHTTPServer(svc, "*", nil)

	rr, payload := serve(t, server, http.MethodPost, "/api/documents", signIn(t, svc).Token, nil)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}
	if payload["title"] != "Untitled" {
		t.Fatalf("expected Untitled, got %v", payload["title"])
	}
}

func TestRemoveAccessDecodesEmailSegment(t *testing.T) {
	var removed string
	fs := &fakeStore{
		getDocumentAccessFn: accessFor(map[string]string{testUser.Email: store.AccessCreator}),
		removeDocumentAccessFn: func(_ context.Context, _ string, email string) error {
			removed = email
			return nil
		},
	}
	svc := newTestService(fs, Deps{})
	server := NewHTTPServer(svc, "*", nil)

	rr, _ := serve(t, server, http.MethodDelete, "/api/documents/doc-1/access/blake%40example.com", signIn(t, svc).Token, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if removed != "blake@example.com" {
		t.Fatalf("unexpected removed email %q", removed)
	}
}

func TestNotificationWebhookRequiresToken(t *testing.T) {
	fs := &fakeStore{}
	server := NewHTTPServer(newTestService(fs, Deps{}), "*", nil)
	body := `{"userEmail":"blake@example.com","kind":"thread","roomId":"doc-1"}`

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{name: "missing", token: "", want: http.StatusUnauthorized},
		{name: "wrong", token: "nope", want: http.StatusUnauthorized},
		{name: "valid", token: "hook-secret", want: http.StatusAccepted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/internal/notifications", strings.NewReader(body))
			if tc.token != "" {
				req.Header.Set("x-docboard-webhook-token", tc.token)
			}
			rr := httptest.NewRecorder()
			server.Handler().ServeHTTP(rr, req)
			if rr.Code != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, rr.Code, rr.Body.String())
			}
		})
	}
	if len(fs.insertedNotifications()) != 1 {
		t.Fatalf("expected exactly one stored notification")
	}
}

func TestNotificationWebhookDisabledWithoutToken(t *testing.T) {
	cfg := testConfig()
	cfg.WebhookToken = ""
	fs := &fakeStore{}
	server := NewHTTPServer(newService(cfg, fs, nil, Deps{}), "*", nil)

	for _, token := range []string{"", "docboard-webhook-token", " "} {
		req := httptest.NewRequest(http.MethodPost, "/api/internal/notifications",
			strings.NewReader(`{"userEmail":"blake@example.com","kind":"thread","roomId":"doc-1"}`))
		if token != "" {
			req.Header.Set("x-docboard-webhook-token", token)
		}
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("token %q: expected 401, got %d", token, rr.Code)
		}
	}
	if n := len(fs.insertedNotifications()); n != 0 {
		t.Fatalf("expected nothing stored, got %d", n)
	}
}

func readEvent(t *testing.T, reader *bufio.Reader) map[string]any {
	t.Helper()
	var data string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "" && data != "" {
			break
		}
		if strings.HasPrefix(line, "data: ") {
			data = strings.TrimPrefix(line, "data: ")
		}
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		t.Fatalf("parse event: %v", err)
	}
	return payload
}

func TestInboxStreamSendsFeedAndUpdates(t *testing.T) {
	hub := stream.NewHub(nil, nil)
	svc := newTestService(&fakeStore{}, Deps{Hub: hub})
	session := signIn(t, svc)
	ts := httptest.NewServer(NewHTTPServer(svc, "*", nil).Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/inbox/stream", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+session.Token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}
	reader := bufio.NewReader(resp.Body)

	first := readEvent(t, reader)
	if first["placeholder"] != "No new notifications" || first["showBadge"] != false {
		t.Fatalf("unexpected initial feed %v", first)
	}

	if err := hub.Publish(ctx, testUser.Email, []byte(`{"showBadge":true}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	update := readEvent(t, reader)
	if update["showBadge"] != true {
		t.Fatalf("unexpected update %v", update)
	}
}

func TestRefreshEndpointRejectsUnknownToken(t *testing.T) {
	server := NewHTTPServer(newTestService(&fakeStore{}, Deps{}), "*", nil)

	rr, payload := serve(t, server, http.MethodPost, "/api/session/refresh", "", bytes.NewBufferString(`{"refreshToken":"nope"}`))

	assertUnauthorizedCode(t, rr, payload)
}
