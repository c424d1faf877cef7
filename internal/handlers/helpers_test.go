package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/transportmanager/apiserver/config"
	"github.com/transportmanager/apiserver/internal/db"
	"github.com/transportmanager/apiserver/internal/logger"
	"github.com/transportmanager/apiserver/internal/services"
	"github.com/transportmanager/apiserver/internal/store"
	"github.com/transportmanager/apiserver/types"
)

type testAPI struct {
	router *chi.Mux
	users  *services.UserService
}

func newTestAPI(t *testing.T, secret string) *testAPI {
	t.Helper()

	conn, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.Migrate(conn, config.DriverSQLite, db.Up))

	log := logger.Nop()
	repo := store.NewUserRepository(conn)
	userService := services.NewUserService(repo, services.PlaintextScheme{})
	authService := services.NewAuthService(repo, services.PlaintextScheme{}, log)
	authHandler := NewAuthHandler(authService, userService, AuthOptions{Secret: secret, Log: log})

	router := chi.NewRouter()
	router.Route("/users", func(r chi.Router) {
		UserRouter(r, userService, log)
	})
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, authHandler)
	})

	return &testAPI{router: router, users: userService}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) createUser(t *testing.T, name, email, password string, role types.Role) types.User {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/users", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
		"role":     string(role),
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[dataEnvelope[types.User]](t, rec).Data
}

type dataEnvelope[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
}

type loginEnvelope struct {
	Success bool           `json:"success"`
	User    types.AuthUser `json:"user"`
	Token   string         `json:"token"`
	Message string         `json:"message"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
