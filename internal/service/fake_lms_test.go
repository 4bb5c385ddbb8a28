package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

// fakeLMS keeps lists in memory and counts calls per method.
type fakeLMS struct {
	mu sync.Mutex

	calls       map[string]int
	lastForm    *integration.Form
	lastGrade   integration.GradeRequest
	lastSel     models.Selection
	assignments []models.Assignment
	notes       []models.Note
	submissions []models.Submission
	counts      models.Counts
	user        models.User
	login       *integration.LoginResponse

	listErr  error
	writeErr error
	countErr error
}

func newFakeLMS() *fakeLMS {
	return &fakeLMS{calls: make(map[string]int)}
}

func (f *fakeLMS) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeLMS) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeLMS) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeLMS) Login(_ context.Context, _, _ string) (*integration.LoginResponse, error) {
	f.hit("Login")
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return f.login, nil
}

func (f *fakeLMS) Register(_ context.Context, form *integration.Form) error {
	f.hit("Register")
	f.lastForm = form
	return f.writeErr
}

func (f *fakeLMS) GetUser(_ context.Context, _, _ string) (*models.User, error) {
	f.hit("GetUser")
	if f.listErr != nil {
		return nil, f.listErr
	}
	u := f.user
	return &u, nil
}

func (f *fakeLMS) EditUser(_ context.Context, _ string, form *integration.Form) (*integration.EditUserResponse, error) {
	f.hit("EditUser")
	f.lastForm = form
	if f.writeErr != nil {
		return nil, f.writeErr
	}
	return &integration.EditUserResponse{AvatarURL: "/avatars/u1.png"}, nil
}

func (f *fakeLMS) ChangeAvatar(_ context.Context, _ string, form *integration.Form) error {
	f.hit("ChangeAvatar")
	f.lastForm = form
	return f.writeErr
}

func (f *fakeLMS) ListAssignments(_ context.Context, _ string, sel models.Selection) ([]models.Assignment, error) {
	f.hit("ListAssignments")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSel = sel
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Assignment, len(f.assignments))
	copy(out, f.assignments)
	return out, nil
}

func (f *fakeLMS) CreateAssignment(_ context.Context, _ string, form *integration.Form) error {
	f.hit("CreateAssignment")
	f.lastForm = form
	if f.writeErr != nil {
		return f.writeErr
	}
	title, _ := form.Value("title")
	f.mu.Lock()
	f.assignments = append(f.assignments, models.Assignment{ID: "new", Title: title})
	f.mu.Unlock()
	return nil
}

func (f *fakeLMS) UpdateAssignment(_ context.Context, _, id string, form *integration.Form) error {
	f.hit("UpdateAssignment")
	f.lastForm = form
	return f.writeErr
}

func (f *fakeLMS) DeleteAssignment(_ context.Context, _, id string) error {
	f.hit("DeleteAssignment")
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.assignments[:0]
	for _, a := range f.assignments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	f.assignments = kept
	return nil
}

func (f *fakeLMS) SetAssignmentLock(_ context.Context, _, id string, locked bool) error {
	f.hit("SetAssignmentLock")
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.assignments {
		if f.assignments[i].ID == id {
			f.assignments[i].Locked = locked
		}
	}
	return nil
}

func (f *fakeLMS) ListSubmissions(_ context.Context, _ string, filter integration.SubmissionFilter) ([]models.Submission, error) {
	f.hit("ListSubmissions")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []models.Submission{}
	for _, s := range f.submissions {
		if filter.AssignmentID != "" && s.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeLMS) GradeSubmission(_ context.Context, _, id string, req integration.GradeRequest) error {
	f.hit("GradeSubmission")
	f.lastGrade = req
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.submissions {
		if f.submissions[i].ID == id {
			m := req.Marks
			f.submissions[i].Marks = &m
			f.submissions[i].Comments = req.Comments
		}
	}
	return nil
}

func (f *fakeLMS) SubmitAssignment(_ context.Context, _ string, form *integration.Form) error {
	f.hit("SubmitAssignment")
	f.lastForm = form
	return f.writeErr
}

func (f *fakeLMS) Unsubmit(_ context.Context, _, _ string) error {
	f.hit("Unsubmit")
	return f.writeErr
}

func (f *fakeLMS) ListNotes(_ context.Context, _ string, sel models.Selection) ([]models.Note, error) {
	f.hit("ListNotes")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Note, len(f.notes))
	copy(out, f.notes)
	return out, nil
}

func (f *fakeLMS) CreateNote(_ context.Context, _ string, form *integration.Form) error {
	f.hit("CreateNote")
	f.lastForm = form
	if f.writeErr != nil {
		return f.writeErr
	}
	title, _ := form.Value("title")
	f.mu.Lock()
	f.notes = append(f.notes, models.Note{ID: "n-new", Title: title})
	f.mu.Unlock()
	return nil
}

func (f *fakeLMS) UpdateNote(_ context.Context, _, _ string, form *integration.Form) error {
	f.hit("UpdateNote")
	f.lastForm = form
	return f.writeErr
}

func (f *fakeLMS) DeleteNote(_ context.Context, _, id string) error {
	f.hit("DeleteNote")
	if f.writeErr != nil {
		return f.writeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.notes[:0]
	for _, n := range f.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	f.notes = kept
	return nil
}

func (f *fakeLMS) CountStudents(_ context.Context, _ string, _ models.Selection) (int, error) {
	f.hit("CountStudents")
	return f.counts.Students, f.countErr
}

func (f *fakeLMS) CountAssignments(_ context.Context, _ string, _ models.Selection) (int, error) {
	f.hit("CountAssignments")
	return f.counts.Assignments, f.countErr
}

func (f *fakeLMS) CountLectures(_ context.Context, _ string, _ models.Selection) (int, error) {
	f.hit("CountLectures")
	return f.counts.Lectures, f.countErr
}

type fixture struct {
	holder  *session.Holder
	storage repository.StorageRepository
	lms     *fakeLMS
}

const testSID = "sid-1"

func newFixture() *fixture {
	storage := repository.NewMemoryStorage()
	return &fixture{
		holder:  session.NewHolder(storage, zerolog.Nop()),
		storage: storage,
		lms:     newFakeLMS(),
	}
}

// login stores a session directly, without going through the LMS.
func (fx *fixture) login(role models.Role) *models.Session {
	user := &models.Session{
		ID:     "u1",
		Name:   "Ayesha",
		Role:   role,
		Token:  "tok",
		Course: "Web",
		Batch:  "Batch12",
	}
	if err := fx.holder.Begin(context.Background(), testSID, *user); err != nil {
		panic(err)
	}
	return user
}

func (fx *fixture) selectScope(course, batch string) {
	if err := fx.holder.Select(context.Background(), testSID, models.Selection{Course: course, Batch: batch}); err != nil {
		panic(err)
	}
}

func marks(v float64) *float64 {
	return &v
}
