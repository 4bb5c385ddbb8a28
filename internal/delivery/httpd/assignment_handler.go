package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

const assignmentsView = "view-assignments"

func (h *Handler) ListAssignments(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	page, err := h.Assignments.List(r.Context(), sid, user)
	if err != nil {
		h.fail(w, r, assignmentsView, err, "")
		return
	}
	h.ok(w, r, assignmentsView, page, warning(page.Warning))
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	h.saveAssignment(w, r, "")
}

func (h *Handler) UpdateAssignment(w http.ResponseWriter, r *http.Request) {
	h.saveAssignment(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) saveAssignment(w http.ResponseWriter, r *http.Request, id string) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, assignmentsView, badForm(err), "")
		return
	}
	file, err := upload(r, "file")
	if err != nil {
		h.fail(w, r, assignmentsView, badForm(err), "")
		return
	}

	page, err := h.Assignments.Save(r.Context(), sid, user, id, service.AssignmentInput{
		Title:       values.Get("title"),
		DueDate:     values.Get("dueDate"),
		Description: values.Get("description"),
		Link:        values.Get("link"),
		TotalMarks:  values.Get("totalMarks"),
		File:        file,
	})
	if err != nil {
		h.fail(w, r, assignmentsView, err, "")
		return
	}
	h.ok(w, r, assignmentsView, page, orWarning(page.Warning, success("Assignment saved")))
}

func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	page, err := h.Assignments.Delete(r.Context(), sid, user, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, assignmentsView, err, "")
		return
	}
	h.ok(w, r, assignmentsView, page, orWarning(page.Warning, success("Assignment deleted")))
}
