package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/transportmanager/apiserver/internal/logger"
	"github.com/transportmanager/apiserver/internal/metrics"
	"github.com/transportmanager/apiserver/internal/services"
	"github.com/transportmanager/apiserver/types"
)

const (
	defaultTokenTTL = 24 * time.Hour
	msgLoggedOut    = "logout successful"
)

// AuthOptions configures token issuance. An empty Secret disables tokens.
type AuthOptions struct {
	Secret   string
	TokenTTL time.Duration
	Metrics  *metrics.AuthMetrics
	Log      *logger.Logger
}

// AuthHandler provides the login and logout endpoints.
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	secret      []byte
	tokenTTL    time.Duration
	metrics     *metrics.AuthMetrics
	log         *logger.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, userService *services.UserService, opts AuthOptions) *AuthHandler {
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthHandler{
		authService: authService,
		userService: userService,
		secret:      []byte(strings.TrimSpace(opts.Secret)),
		tokenTTL:    ttl,
		metrics:     opts.Metrics,
		log:         opts.Log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/login", handler.Login)
	r.Post("/logout", handler.Logout)
	if len(handler.secret) > 0 {
		r.With(handler.RequireAuth).Get("/me", handler.Me)
	}
}

// RequireAuth enforces JWT authentication and injects the subject into context.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return requireAuth(h.secret)(next)
}

// RequireAuth constructs auth middleware for other routers.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return requireAuth([]byte(jwtSecret))
}

func requireAuth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			subject, err := parseTokenSubject(tokenString, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), contextSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin allows the request through only when the authenticated
// subject is an active admin. It must run after RequireAuth.
func RequireAdmin(userService *services.UserService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := userIDFromContext(r.Context())
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := userService.Get(r.Context(), userID)
			if err != nil {
				if services.KindOf(err) == services.KindNotFound {
					writeError(w, http.StatusUnauthorized, "unauthorized")
					return
				}
				writeFailure(w, r, log, err)
				return
			}

			if user.Role != types.RoleAdmin || user.Status != types.StatusActive {
				writeError(w, http.StatusForbidden, "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Login verifies credentials. A JWT is included when a secret is configured.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.metrics.IncLogin(metrics.LoginInvalid)
		writeFailure(w, r, h.log, err)
		return
	}

	user, err := h.authService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch services.KindOf(err) {
		case services.KindUnauthorized:
			h.metrics.IncLogin(metrics.LoginRejected)
		case services.KindValidation:
			h.metrics.IncLogin(metrics.LoginInvalid)
		default:
			h.metrics.IncLogin(metrics.LoginError)
		}
		writeFailure(w, r, h.log, err)
		return
	}

	resp := LoginResponse{Success: true, User: user}
	if len(h.secret) > 0 {
		token, err := issueToken(user.ID, h.secret, h.tokenTTL)
		if err != nil {
			h.metrics.IncLogin(metrics.LoginError)
			if h.log != nil {
				h.log.Error(r.Context(), "auth.issue_token_failed", err)
			}
			writeError(w, http.StatusInternalServerError, "failed to create token")
			return
		}
		resp.Token = token
	}

	h.metrics.IncLogin(metrics.LoginSuccess)
	writeJSON(w, http.StatusOK, resp)
}

// Logout only acknowledges; there is no server-side session to drop.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, nil, msgLoggedOut)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.userService.Get(r.Context(), userID)
	if err != nil {
		if services.KindOf(err) == services.KindNotFound {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		writeFailure(w, r, h.log, err)
		return
	}
	if user.Status != types.StatusActive {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeSuccess(w, http.StatusOK, user, "")
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool           `json:"success"`
	User    types.AuthUser `json:"user"`
	Token   string         `json:"token,omitempty"`
}

func issueToken(userID int, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
