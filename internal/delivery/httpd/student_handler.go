package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

func (h *Handler) PreviewAssignments(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	page, err := h.Student.Preview(r.Context(), sid, user)
	if err != nil {
		h.fail(w, r, assignmentsView, err, "")
		return
	}
	h.ok(w, r, assignmentsView, page, warning(page.Warning))
}

func (h *Handler) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, "submit-assignment", badForm(err), "")
		return
	}
	file, err := upload(r, "file")
	if err != nil {
		h.fail(w, r, "submit-assignment", badForm(err), "")
		return
	}

	page, err := h.Student.Submit(r.Context(), sid, user, service.SubmitInput{
		AssignmentID:   values.Get("assignmentId"),
		Name:           values.Get("name"),
		RollNo:         values.Get("rollNo"),
		Title:          values.Get("title"),
		Description:    values.Get("description"),
		SubmissionType: values.Get("submissionType"),
		Link:           values.Get("link"),
		File:           file,
	})
	if err != nil {
		h.fail(w, r, "submit-assignment", err, "Failed to submit assignment. Please try again.")
		return
	}
	h.ok(w, r, "submit-assignment", page, orWarning(page.Warning, success(page.Status)))
}

func (h *Handler) Unsubmit(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	page, err := h.Student.Unsubmit(r.Context(), sid, user, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "submit-assignment", err, "")
		return
	}
	h.ok(w, r, "submit-assignment", page, orWarning(page.Warning, success(page.Status)))
}

func (h *Handler) MyMarks(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	page, err := h.Student.Marks(r.Context(), sid, user)
	if err != nil {
		h.fail(w, r, markingView, err, "")
		return
	}
	h.ok(w, r, markingView, page, warning(page.Warning))
}
