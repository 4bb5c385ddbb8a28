package httpd

import (
	"net/http"

	"github.com/RubachokBoss/assignment-portal/internal/middleware"
	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

// LoginPage sends a browser that already has a session to its home.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	sid := session.IDFromContext(r.Context())

	if user, err := h.Holder.Current(r.Context(), sid); err == nil {
		redirect(w, Page{View: "login", User: userView(user), Redirect: homePath(user.Role)})
		return
	}

	writeJSON(w, http.StatusOK, Page{View: "login"})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, "login", badForm(err), "")
		return
	}

	sid := session.IDFromContext(r.Context())
	user, err := h.Auth.Login(r.Context(), sid, service.LoginInput{
		Email:    values.Get("email"),
		Password: values.Get("password"),
	})
	if err != nil {
		h.fail(w, r, "login", err, "Login failed!")
		return
	}

	h.logger.Info().Str("user_id", user.ID).Str("role", user.Role.String()).Msg("User logged in")

	redirect(w, Page{
		View:     "login",
		User:     userView(user),
		Redirect: homePath(user.Role),
		Flash:    success("Login successful!"),
	})
}

func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Page{View: "register"})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, "register", badForm(err), "")
		return
	}

	photo, err := upload(r, "photo")
	if err != nil {
		h.fail(w, r, "register", badForm(err), "")
		return
	}

	err = h.Auth.Register(r.Context(), service.RegisterInput{
		Name:            values.Get("name"),
		Email:           values.Get("email"),
		Password:        values.Get("password"),
		ConfirmPassword: values.Get("confirmPassword"),
		Role:            values.Get("role"),
		Gender:          values.Get("gender"),
		Course:          values.Get("course"),
		Batch:           values.Get("batch"),
		Photo:           photo,
	})
	if err != nil {
		h.fail(w, r, "register", err, "Registration failed!")
		return
	}

	redirect(w, Page{
		View:     "register",
		Redirect: middleware.LoginPath,
		Flash:    success("Registration successful! Please log in."),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sid := session.IDFromContext(r.Context())

	user, _ := h.Holder.Current(r.Context(), sid)
	if err := h.Auth.Logout(r.Context(), sid, user); err != nil {
		h.fail(w, r, "logout", err, "")
		return
	}

	redirect(w, Page{View: "login", Redirect: middleware.LoginPath})
}
