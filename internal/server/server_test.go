package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/transportmanager/apiserver/config"
	"github.com/transportmanager/apiserver/internal/db"
	"github.com/transportmanager/apiserver/internal/store"
	"github.com/transportmanager/apiserver/types"
)

func testConfig() config.Config {
	return config.Config{
		PingMessage: "pong",
		Database:    config.DatabaseConfig{Driver: config.DriverSQLite},
		Auth: config.AuthConfig{
			TokenTTL:       time.Hour,
			PasswordScheme: config.PasswordSchemePlaintext,
		},
	}
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *store.UserRepository) {
	t.Helper()

	conn, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn, config.DriverSQLite, db.Up))

	srv, err := NewWithDB(cfg, conn, nil, prometheus.NewRegistry())
	require.NoError(t, err)
	return srv, store.NewUserRepository(conn)
}

func serve(t *testing.T, srv *Server, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, srv *Server, email, password string) string {
	t.Helper()
	rec := serve(t, srv, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestHealthAndPing(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodGet, "/healthz", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = serve(t, srv, http.MethodGet, "/ping", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"pong"}`, rec.Body.String())
}

func TestHealthReportsClosedStore(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())
	require.NoError(t, srv.db.Close())

	rec := serve(t, srv, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOpenUserRoutesWithoutEnforcement(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := serve(t, srv, http.MethodPost, "/users", map[string]string{
		"name": "Ana", "email": "ana@x.com", "password": "p1", "role": "operator",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = serve(t, srv, http.MethodGet, "/users", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestEnforcedUserRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "s3cret"
	cfg.Auth.Enforce = true
	srv, repo := newTestServer(t, cfg)
	ctx := context.Background()

	_, err := repo.Create(ctx, types.NewUser{Name: "Root", Email: "root@x.com", Password: "rootpw", Role: types.RoleAdmin})
	require.NoError(t, err)
	_, err = repo.Create(ctx, types.NewUser{Name: "View", Email: "view@x.com", Password: "viewpw", Role: types.RoleViewer})
	require.NoError(t, err)

	rec := serve(t, srv, http.MethodGet, "/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	viewerToken := login(t, srv, "view@x.com", "viewpw")
	rec = serve(t, srv, http.MethodGet, "/users", nil, viewerToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	adminToken := login(t, srv, "root@x.com", "rootpw")
	rec = serve(t, srv, http.MethodGet, "/users/stats", nil, adminToken)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"admin":1,"operator":0,"viewer":1,"total":2}}`, rec.Body.String())

	rec = serve(t, srv, http.MethodGet, "/auth/me", nil, viewerToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestEnforceRequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enforce = true

	conn, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = NewWithDB(cfg, conn, nil, nil)
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	serve(t, srv, http.MethodGet, "/users/42", nil, "")
	serve(t, srv, http.MethodPost, "/auth/login", map[string]string{"email": "x@x.com", "password": "nope"}, "")

	rec := serve(t, srv, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `http_requests_total{method="GET",route="/users/{userID}`)
	assert.Contains(t, body, `status="404"} 1`)
	assert.Contains(t, body, `auth_login_attempts_total{outcome="rejected"} 1`)
	assert.False(t, strings.Contains(body, "/users/42"), "routes are labelled by pattern")
}
