package httpd

import (
	"net/http"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	page, err := h.Deps.Dashboard.Dashboard(r.Context(), sid, user)
	if err != nil {
		h.fail(w, r, "dashboard", err, "")
		return
	}
	h.ok(w, r, "dashboard", page, warning(page.Warning))
}

func (h *Handler) SelectScope(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, "dashboard", badForm(err), "")
		return
	}

	sel := models.Selection{Course: values.Get("course"), Batch: values.Get("batch")}
	page, err := h.Deps.Dashboard.Select(r.Context(), sid, user, sel)
	if err != nil {
		h.fail(w, r, "dashboard", err, "")
		return
	}
	h.ok(w, r, "dashboard", page, warning(page.Warning))
}
