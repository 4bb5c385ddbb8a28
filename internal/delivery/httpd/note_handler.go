package httpd

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

const notesView = "notes"

func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	page, err := h.Notes.List(r.Context(), sid, user)
	if err != nil {
		h.fail(w, r, notesView, err, "")
		return
	}
	h.ok(w, r, notesView, page, warning(page.Warning))
}

func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	h.saveNote(w, r, "")
}

func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	h.saveNote(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) saveNote(w http.ResponseWriter, r *http.Request, id string) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, notesView, badForm(err), "")
		return
	}
	file, err := upload(r, "file")
	if err != nil {
		h.fail(w, r, notesView, badForm(err), "")
		return
	}

	page, err := h.Notes.Save(r.Context(), sid, user, id, service.NoteInput{
		Title:   values.Get("title"),
		Date:    values.Get("date"),
		Content: values.Get("content"),
		Link:    values.Get("link"),
		File:    file,
	})
	if err != nil {
		h.fail(w, r, notesView, err, "")
		return
	}
	h.ok(w, r, notesView, page, orWarning(page.Warning, success("Note saved")))
}

func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	page, err := h.Notes.Delete(r.Context(), sid, user, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, notesView, err, "")
		return
	}
	h.ok(w, r, notesView, page, orWarning(page.Warning, success("Note deleted")))
}
