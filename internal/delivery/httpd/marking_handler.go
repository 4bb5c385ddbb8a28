package httpd

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

const markingView = "marking"

func (h *Handler) MarkingOverview(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	assignmentID := chi.URLParam(r, "assignmentID")
	if assignmentID == "" {
		assignmentID = r.URL.Query().Get("assignmentId")
	}

	page, err := h.Marking.Overview(r.Context(), sid, user, assignmentID)
	if err != nil {
		h.fail(w, r, markingView, err, "")
		return
	}
	h.ok(w, r, markingView, page, warning(page.Warning))
}

func (h *Handler) GradeSubmission(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, markingView, badForm(err), "")
		return
	}

	in := service.GradeInput{Comments: values.Get("comments")}
	if raw := values.Get("marks"); raw != "" {
		m, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			h.fail(w, r, markingView, &service.ValidationError{Fields: map[string]string{"marks": "must be a number"}}, "")
			return
		}
		in.Marks = &m
	}

	page, err := h.Marking.Grade(r.Context(), sid, user,
		chi.URLParam(r, "assignmentID"), chi.URLParam(r, "submissionID"), in)
	if err != nil {
		h.fail(w, r, markingView, err, "")
		return
	}
	h.ok(w, r, markingView, page, orWarning(page.Warning, success("Marks updated")))
}

func (h *Handler) SetLock(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, markingView, badForm(err), "")
		return
	}
	locked, err := strconv.ParseBool(values.Get("locked"))
	if err != nil {
		h.fail(w, r, markingView, &service.ValidationError{Fields: map[string]string{"locked": "must be true or false"}}, "")
		return
	}

	page, err := h.Marking.SetLock(r.Context(), sid, user, chi.URLParam(r, "assignmentID"), locked)
	if err != nil {
		h.fail(w, r, markingView, err, "")
		return
	}

	msg := "Assignment unlocked"
	if locked {
		msg = "Assignment locked"
	}
	h.ok(w, r, markingView, page, orWarning(page.Warning, success(msg)))
}
