package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/transportmanager/apiserver/internal/logger"
	"github.com/transportmanager/apiserver/internal/services"
)

type contextKey string

const contextSubjectKey contextKey = "sub"

// SuccessResponse is the envelope of every successful call.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the envelope of every failed call.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func userIDFromContext(ctx context.Context) (int, error) {
	subject, ok := ctx.Value(contextSubjectKey).(string)
	if !ok {
		return 0, errors.New("missing subject")
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(subject))
	if err != nil || parsed < 1 {
		return 0, errors.New("invalid subject")
	}
	return parsed, nil
}

func parseUserID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil {
		return 0, services.ValidationError(services.MsgInvalidID)
	}
	return id, nil
}

// decodeJSON reads the request body into dest. An empty body leaves dest untouched.
func decodeJSON(r *http.Request, dest any) error {
	if r.Body == nil {
		return nil
	}
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return services.ValidationError(services.MsgInvalidBody)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, SuccessResponse{Success: true, Data: data, Message: message})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: message})
}

// writeFailure maps a classified error onto its HTTP status. Internal
// failures are logged with their cause and answered with a generic message.
func writeFailure(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	typed := services.AsError(err)
	if typed.Kind == services.KindInternal && log != nil {
		log.Error(r.Context(), "request.error", err)
	}
	writeError(w, statusFor(typed.Kind), typed.Message)
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindBusinessRule:
		return http.StatusBadRequest
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
