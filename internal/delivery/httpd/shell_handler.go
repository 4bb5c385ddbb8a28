package httpd

import (
	"context"
	"net/http"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/session"
	"github.com/RubachokBoss/assignment-portal/internal/shell"
)

// Home renders the role's shell with the currently selected section.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	state, err := h.Navigator.Current(r.Context(), sid, user.Role)
	if err != nil {
		h.fail(w, r, "shell", err, "")
		return
	}
	h.renderSection(w, r, user, state)
}

func (h *Handler) Navigate(w http.ResponseWriter, r *http.Request) {
	user := session.UserFromContext(r.Context())
	sid := session.IDFromContext(r.Context())

	values, err := h.formValues(w, r)
	if err != nil {
		h.fail(w, r, "shell", badForm(err), "")
		return
	}

	state, err := h.Navigator.Navigate(r.Context(), sid, user.Role, values.Get("section"))
	if err != nil {
		h.fail(w, r, "shell", err, "")
		return
	}
	h.renderSection(w, r, user, state)
}

func (h *Handler) renderSection(w http.ResponseWriter, r *http.Request, user *models.Session, state shell.State) {
	sid := session.IDFromContext(r.Context())

	data, err := h.sectionData(r.Context(), sid, user, state.Selected)
	if err != nil {
		h.fail(w, r, string(state.Selected), err, "")
		return
	}

	writeJSON(w, http.StatusOK, Page{
		View:  string(state.Selected),
		User:  userView(user),
		Shell: &state,
		Data:  data,
	})
}

// sectionData fetches what the selected section shows.
func (h *Handler) sectionData(ctx context.Context, sid string, user *models.Session, section shell.Section) (interface{}, error) {
	teacher := user.Role == models.RoleTeacher

	switch section {
	case shell.Dashboard:
		return h.Deps.Dashboard.Dashboard(ctx, sid, user)
	case shell.ViewAssignments:
		if teacher {
			return h.Assignments.List(ctx, sid, user)
		}
		return h.Student.Preview(ctx, sid, user)
	case shell.SubmitAssignment:
		return h.Student.Preview(ctx, sid, user)
	case shell.Notes:
		return h.Notes.List(ctx, sid, user)
	case shell.Marking:
		if teacher {
			return h.Marking.Overview(ctx, sid, user, "")
		}
		return h.Student.Marks(ctx, sid, user)
	case shell.Profile:
		return h.Profile.View(ctx, sid, user)
	default:
		return nil, shell.ErrUnknownSection
	}
}
