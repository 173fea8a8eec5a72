package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginForm_Success(t *testing.T) {
	svc := newStubAuthService()
	h := &AuthHandlers{Svc: svc}

	form := url.Values{"username": {"mperez"}, "password": {"secret"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.LoginForm(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.Equal(t, "sess-mperez", sessionCookie.Value)
	assert.True(t, sessionCookie.HttpOnly)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authenticated", body["status"])
}

func TestLoginForm_BrowserRedirects(t *testing.T) {
	svc := newStubAuthService()
	h := &AuthHandlers{Svc: svc}

	form := url.Values{
		"username":     {"mperez"},
		"password":     {"secret"},
		"redirect_uri": {"/cursos"},
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.LoginForm(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/cursos", rec.Header().Get("Location"))
}

func TestLoginForm_BackendRejection(t *testing.T) {
	svc := newStubAuthService()
	svc.loginErr = errors.New("credenciales inválidas")
	h := &AuthHandlers{Svc: svc}

	form := url.Values{"username": {"mperez"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.LoginForm(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "login_failed", body["error"])
	assert.Contains(t, body["message"], "credenciales inválidas", "backend message passes through")
}

func TestLoginForm_MissingCredentials(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuthService()}

	form := url.Values{"username": {"mperez"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.LoginForm(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBeginOAuth_RedirectsToProvider(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuthService()}

	req := httptest.NewRequest(http.MethodGet, "/auth/login?redirect_uri=/auditoria", nil)
	rec := httptest.NewRecorder()
	h.BeginOAuth(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/auth", rec.Header().Get("Location"))

	cookies := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	assert.Equal(t, "state-1", cookies["oauth_state"])
	assert.Equal(t, "nonce-1", cookies["oauth_nonce"])
	assert.Equal(t, "/auditoria", cookies["post_login_redirect"])
}

func TestCallback_Success(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuthService()}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c1&state=state-1", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	req.AddCookie(&http.Cookie{Name: "oauth_nonce", Value: "nonce-1"})
	req.AddCookie(&http.Cookie{Name: "post_login_redirect", Value: "/auditoria"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/auditoria", rec.Header().Get("Location"))

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" && c.Value != "" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	assert.Equal(t, "sess-oauth", sessionCookie.Value)
}

func TestCallback_StateMismatch(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuthService()}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=c1&state=tampered", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "state-1"})
	rec := httptest.NewRecorder()
	h.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCallback_MissingParams(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuthService()}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?state=state-1", nil)
	rec := httptest.NewRecorder()
	h.Callback(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/auth/callback?code=c1", nil)
	rec = httptest.NewRecorder()
	h.Callback(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	svc := newStubAuthService()
	svc.sessions["sess-1"] = authedSession()
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"sess-1"}, svc.loggedOut)

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie is cleared")
}

func TestSession_Anonymous(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuthService()}

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	h.Session(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "anonymous", body["status"])
	assert.NotContains(t, body, "user")
}

func TestSession_Authenticated(t *testing.T) {
	svc := newStubAuthService()
	svc.sessions["sess-1"] = authedSession("CURSOS", "NOTAS")
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Session(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status string `json:"status"`
		User   struct {
			Username string `json:"username"`
			Views    []struct {
				Code string `json:"code"`
			} `json:"views"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authenticated", body.Status)
	assert.Equal(t, "mperez", body.User.Username)
	require.Len(t, body.User.Views, 2)
	assert.Equal(t, "CURSOS", body.User.Views[0].Code)
}

func TestSession_InvalidCookieCleared(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuthService()}

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "stale"})
	rec := httptest.NewRecorder()
	h.Session(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "anonymous", body["status"])

	var cleared bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "session_id" && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared)
}

func TestRefresh_Success(t *testing.T) {
	svc := newStubAuthService()
	svc.sessions["sess-1"] = authedSession("CURSOS")
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodPost, "/api/session/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authenticated", body["status"])
	assert.NotContains(t, body, "stale")
}

func TestRefresh_FailureKeepsPreviousUser(t *testing.T) {
	svc := newStubAuthService()
	svc.sessions["sess-1"] = authedSession("CURSOS")
	svc.refreshErr = errors.New("backend down")
	h := &AuthHandlers{Svc: svc}

	req := httptest.NewRequest(http.MethodPost, "/api/session/refresh", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "authenticated", body["status"])
	assert.Equal(t, true, body["stale"])
}

func TestRefresh_NoCookie(t *testing.T) {
	h := &AuthHandlers{Svc: newStubAuthService()}

	req := httptest.NewRequest(http.MethodPost, "/api/session/refresh", nil)
	rec := httptest.NewRecorder()
	h.Refresh(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSafeRedirectPath(t *testing.T) {
	cases := map[string]string{
		"":                        "/",
		"/cursos":                 "/cursos",
		"/cursos?page=2":          "/cursos?page=2",
		"https://evil.com/":       "/",
		"//evil.com/":             "/",
		"javascript:alert(1)":     "/",
		"relative/no/slash":       "/",
		"/auditoria#section":      "/auditoria#section",
	}
	for in, want := range cases {
		assert.Equal(t, want, safeRedirectPath(in), "input %q", in)
	}
}
