package schoolapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return client
}

func TestClient_Login(t *testing.T) {
	var gotContentType, gotUser, gotPass string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/auth/login", r.URL.Path)
		gotContentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		gotUser = r.PostForm.Get("username")
		gotPass = r.PostForm.Get("password")
		_ = json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
	}))

	token, err := client.Login(context.Background(), "mperez", "secreto")

	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
	assert.Equal(t, "application/x-www-form-urlencoded", gotContentType)
	assert.Equal(t, "mperez", gotUser)
	assert.Equal(t, "secreto", gotPass)
}

func TestClient_LoginFailurePropagates(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := client.Login(context.Background(), "mperez", "wrong")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClient_LoginAccessTokenFallback(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "at-9"})
	}))

	token, err := client.Login(context.Background(), "u", "p")

	require.NoError(t, err)
	assert.Equal(t, "at-9", token)
}

func TestClient_FetchIdentityCarriesBearerToken(t *testing.T) {
	var gotAuth string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/me", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"user":   map[string]any{"id": 7},
			"vistas": []string{"CURSOS"},
		})
	}))

	payload, err := client.Source("tok-123").FetchIdentity(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	root, ok := payload.(map[string]any)
	require.True(t, ok, "payload decodes as opaque JSON object")
	assert.Contains(t, root, "vistas")
}

func TestClient_FetchPermissions(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/me/permisos", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]string{"CURSOS", "NOTAS"})
	}))

	payload, err := client.Source("tok").FetchPermissions(context.Background())

	require.NoError(t, err)
	list, ok := payload.([]any)
	require.True(t, ok)
	assert.Len(t, list, 2)
}

func TestClient_FetchIdentityHTTPError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.Source("tok").FetchIdentity(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_Logout(t *testing.T) {
	var called bool
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/logout", r.URL.Path)
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	err := client.Logout(context.Background(), "tok")

	require.NoError(t, err)
	assert.True(t, called)
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}
