package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Chakshu098/Everhack-final/internal/repository"
	"github.com/Chakshu098/Everhack-final/internal/service/auth"
	"github.com/Chakshu098/Everhack-final/internal/service/event"
	"github.com/Chakshu098/Everhack-final/internal/service/registration"
	"github.com/Chakshu098/Everhack-final/internal/service/team"
	"github.com/Chakshu098/Everhack-final/internal/service/user"
	"github.com/Chakshu098/Everhack-final/pkg/crypto"
)

// writeJSON writes JSON response with status code.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError sends an error message.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, event.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, crypto.ErrEmptyPassword),
		errors.Is(err, crypto.ErrPasswordTooLong),
		team.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrNotLoggedIn):
		return http.StatusUnauthorized
	case errors.Is(err, user.ErrCannotBanSelf):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrTeamNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrAlreadyRegistered),
		errors.Is(err, repository.ErrEventFull),
		errors.Is(err, repository.ErrAlreadyMember),
		errors.Is(err, repository.ErrTeamFull),
		errors.Is(err, repository.ErrUserExists),
		errors.Is(err, registration.ErrRegistrationClosed),
		errors.Is(err, event.ErrMaxBelowParticipants):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (r *Router) writeServiceError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		r.logger.Error("request failed", "path", req.URL.Path, "error", err)
		writeError(w, status, "internal server error")
		return
	}
	msg := err.Error()
	if errors.Is(err, repository.ErrNotFound) {
		msg = "not found"
	}
	writeError(w, status, msg)
}
