package httpd

import (
	"net/http"

	"github.com/RubachokBoss/assignment-portal/internal/middleware"
	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

const profileView = "profile"

func (h *Handler) ViewProfile(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	profile, err := h.Profile.View(r.Context(), sid, user)
	if err != nil {
		h.fail(w, r, profileView, err, "An error occurred")
		return
	}
	h.ok(w, r, profileView, profile, nil)
}

func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, profileView, badForm(err), "")
		return
	}

	res, err := h.Profile.Edit(r.Context(), sid, user, service.ProfileInput{
		Name:               values.Get("name"),
		Email:              values.Get("email"),
		CurrentPassword:    values.Get("currentPassword"),
		NewPassword:        values.Get("newPassword"),
		ConfirmNewPassword: values.Get("confirmNewPassword"),
	})
	if err != nil {
		h.fail(w, r, profileView, err, "An error occurred")
		return
	}

	redirect(w, Page{View: profileView, Redirect: middleware.LoginPath, Flash: success(res.Message), Data: res})
}

func (h *Handler) ChangeAvatar(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	if _, err := h.formValues(w, r); err != nil {
		h.fail(w, r, profileView, badForm(err), "")
		return
	}
	avatar, err := upload(r, "avatar")
	if err != nil {
		h.fail(w, r, profileView, badForm(err), "")
		return
	}
	if avatar == nil {
		h.fail(w, r, profileView, &service.ValidationError{Fields: map[string]string{"avatar": "is required"}}, "")
		return
	}

	res, err := h.Profile.ChangeAvatar(r.Context(), sid, user, avatar)
	if err != nil {
		h.fail(w, r, profileView, err, "An error occurred")
		return
	}

	redirect(w, Page{View: profileView, Redirect: middleware.LoginPath, Flash: success(res.Message), Data: res})
}
