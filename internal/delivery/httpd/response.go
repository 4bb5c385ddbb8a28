package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RubachokBoss/assignment-portal/internal/middleware"
	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
	"github.com/RubachokBoss/assignment-portal/internal/shell"
)

const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashError   = "error"

	invalidFileMessage = "Invalid file type. Please select a PDF or image file."
	genericMessage     = "An error occurred. Please try again."
)

type Flash struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// UserView is the session as the browser may see it, without the token.
type UserView struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Role   models.Role `json:"role"`
	Avatar string      `json:"avatar,omitempty"`
	Course string      `json:"course,omitempty"`
	Batch  string      `json:"batch,omitempty"`
}

// Page is the envelope of every view model.
type Page struct {
	View     string            `json:"view"`
	User     *UserView         `json:"user,omitempty"`
	Shell    *shell.State      `json:"shell,omitempty"`
	Flash    *Flash            `json:"flash,omitempty"`
	Errors   map[string]string `json:"errors,omitempty"`
	Redirect string            `json:"redirect,omitempty"`
	Data     interface{}       `json:"data,omitempty"`
}

func userView(s *models.Session) *UserView {
	if s == nil {
		return nil
	}
	return &UserView{ID: s.ID, Name: s.Name, Role: s.Role, Avatar: s.Avatar, Course: s.Course, Batch: s.Batch}
}

func warning(msg string) *Flash {
	if msg == "" {
		return nil
	}
	return &Flash{Level: FlashWarning, Message: msg}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// redirect answers 303 with the target also in the body, for fetch clients
// that do not follow redirects.
func redirect(w http.ResponseWriter, page Page) {
	w.Header().Set("Location", page.Redirect)
	writeJSON(w, http.StatusSeeOther, page)
}

// fail renders err for view. Authorization failures end the session and
// send the browser to the login page.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, view string, err error, fallback string) {
	var (
		validation *service.ValidationError
		opErr      *service.OperationError
		apiErr     *integration.APIError
	)

	page := Page{View: view, User: userView(session.UserFromContext(r.Context()))}
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, integration.ErrUnauthorized):
		sid := session.IDFromContext(r.Context())
		if lerr := h.Auth.Logout(r.Context(), sid, session.UserFromContext(r.Context())); lerr != nil {
			h.logger.Error().Err(lerr).Str("session_id", sid).Msg("Failed to end session")
		}
		redirect(w, Page{
			View:     "login",
			Redirect: middleware.LoginPath,
			Flash:    &Flash{Level: FlashWarning, Message: "Your session has expired. Please log in again."},
		})
		return

	case errors.As(err, &validation):
		status = http.StatusUnprocessableEntity
		page.Errors = validation.Fields
		page.Flash = &Flash{Level: FlashError, Message: firstMessage(validation.Fields)}

	case errors.Is(err, service.ErrUnsupportedFile):
		status = http.StatusUnprocessableEntity
		page.Errors = map[string]string{"file": invalidFileMessage}
		page.Flash = &Flash{Level: FlashError, Message: invalidFileMessage}

	case errors.Is(err, service.ErrSelectionRequired):
		status = http.StatusBadRequest
		page.Flash = &Flash{Level: FlashError, Message: "Select a course and batch first"}

	case errors.Is(err, service.ErrAssignmentLocked):
		status = http.StatusConflict
		page.Flash = &Flash{Level: FlashError, Message: "This assignment is locked. Unlock it to change marks."}

	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
		page.Flash = &Flash{Level: FlashError, Message: "Not found"}

	case errors.Is(err, shell.ErrUnknownSection), errors.Is(err, shell.ErrSectionNotAllowed):
		status = http.StatusBadRequest
		page.Flash = &Flash{Level: FlashError, Message: err.Error()}

	case errors.As(err, &opErr):
		status = upstreamStatus(opErr.Err)
		page.Flash = &Flash{Level: FlashError, Message: opErr.Error()}

	case errors.As(err, &apiErr):
		status = upstreamStatus(apiErr)
		page.Flash = &Flash{Level: FlashError, Message: integration.MessageOr(apiErr, fallback)}

	default:
		status = http.StatusBadGateway
		page.Flash = &Flash{Level: FlashError, Message: genericMessage}
	}

	h.logger.Error().
		Err(err).
		Str("view", view).
		Str("path", r.URL.Path).
		Int("status", status).
		Msg("Request failed")

	writeJSON(w, status, page)
}

// upstreamStatus keeps 4xx answers of the LMS API, anything else is a bad
// gateway.
func upstreamStatus(err error) int {
	var apiErr *integration.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func firstMessage(fields map[string]string) string {
	// сообщение о несовпадении паролей показываем в первую очередь
	for _, key := range []string{"confirmPassword", "confirmNewPassword", "submissionType"} {
		if msg, ok := fields[key]; ok && msg != "is required" {
			return msg
		}
	}
	return "Please check the highlighted fields."
}

func (h *Handler) ok(w http.ResponseWriter, r *http.Request, view string, data interface{}, flash *Flash) {
	writeJSON(w, http.StatusOK, Page{
		View:  view,
		User:  userView(session.UserFromContext(r.Context())),
		Flash: flash,
		Data:  data,
	})
}

func success(msg string) *Flash {
	return &Flash{Level: FlashSuccess, Message: msg}
}

// orWarning prefers the load warning of a refetched list over the success
// message of the write that preceded it.
func orWarning(warn string, fallback *Flash) *Flash {
	if warn != "" {
		return warning(warn)
	}
	return fallback
}
