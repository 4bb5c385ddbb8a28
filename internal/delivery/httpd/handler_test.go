package httpd

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/assignment-portal/internal/grading"
	"github.com/RubachokBoss/assignment-portal/internal/middleware"
	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
	"github.com/RubachokBoss/assignment-portal/internal/shell"
)

const testSID = "6f1c3c3e-3b8e-4d53-9a2a-4c1b9e2f7a10"

// lmsBackend is an in-memory LMS API.
type lmsBackend struct {
	mu          sync.Mutex
	hits        map[string]int
	assignments []models.Assignment
	lastQuery   url.Values
	rejectToken bool
	// rawAssignments, when set, is served as is by the filter endpoint
	rawAssignments string
}

func (b *lmsBackend) hit(r *http.Request) {
	b.mu.Lock()
	b.hits[r.Method+" "+r.URL.Path]++
	b.mu.Unlock()
}

func (b *lmsBackend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[key]
}

func (b *lmsBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.hits {
		n += c
	}
	return n
}

func (b *lmsBackend) router() http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			b.hit(req)
			if b.rejectToken && req.Header.Get("Authorization") != "" {
				writeError(w, http.StatusUnauthorized, "jwt expired")
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.Post("/users/login", func(w http.ResponseWriter, req *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(req.Body).Decode(&body)
		if body["password"] != "secret" {
			writeError(w, http.StatusBadRequest, "Invalid credentials")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"token": "tok", "id": "u1", "name": "Ayesha", "role": "teacher",
		})
	})
	r.Post("/users/register", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, map[string]string{"message": "ok"})
	})
	r.Get("/assignments/filter", func(w http.ResponseWriter, req *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.lastQuery = req.URL.Query()
		if b.rawAssignments != "" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(b.rawAssignments))
			return
		}
		writeJSON(w, http.StatusOK, b.assignments)
	})
	r.Post("/assignments", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		marks := 0.0
		_ = json.Unmarshal([]byte(req.FormValue("totalMarks")), &marks)
		b.mu.Lock()
		b.assignments = append(b.assignments, models.Assignment{
			ID:         "new",
			Title:      req.FormValue("title"),
			TotalMarks: marks,
			Course:     req.FormValue("course"),
			Batch:      req.FormValue("batch"),
		})
		b.mu.Unlock()
		writeJSON(w, http.StatusCreated, nil)
	})
	r.Delete("/assignments/{id}", func(w http.ResponseWriter, req *http.Request) {
		id := chi.URLParam(req, "id")
		b.mu.Lock()
		kept := b.assignments[:0]
		for _, a := range b.assignments {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		b.assignments = kept
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]string{"message": "deleted"})
	})
	r.Get("/notes/filter", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, []models.Note{{ID: "n1", Title: "Lecture 1"}})
	})
	return r
}

type testApp struct {
	handler http.Handler
	holder  *session.Holder
	storage repository.StorageRepository
	backend *lmsBackend
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	backend := &lmsBackend{hits: make(map[string]int)}
	srv := httptest.NewServer(backend.router())
	t.Cleanup(srv.Close)

	log := zerolog.Nop()
	storage := repository.NewMemoryStorage()
	holder := session.NewHolder(storage, log)
	lms := integration.NewLMSClient(srv.URL, 2*time.Second, 0, 0, log)

	assignmentsView := service.NewListView("assignments", lms.ListAssignments, log)
	notesView := service.NewListView("notes", lms.ListNotes, log)
	grader := grading.New(50)

	h := NewHandler(Deps{
		Holder:      holder,
		Navigator:   shell.NewNavigator(holder),
		Storage:     storage,
		Auth:        service.NewAuthService(holder, lms, nil, log, assignmentsView, notesView),
		Dashboard:   service.NewDashboardService(holder, lms, log),
		Assignments: service.NewAssignmentService(holder, lms, assignmentsView, nil, log),
		Notes:       service.NewNoteService(holder, lms, notesView, nil, log),
		Marking:     service.NewMarkingService(holder, lms, assignmentsView, grader, nil, log),
		Student:     service.NewStudentService(holder, lms, assignmentsView, grader, nil, log),
		Profile:     service.NewProfileService(holder, lms, log, assignmentsView, notesView),
		MaxUpload:   1 << 20,
	}, log)

	router := chi.NewRouter()
	router.Use(middleware.SessionCookie(middleware.CookieOptions{Name: "portal_sid", TTL: time.Hour}))
	h.RegisterRoutes(router)

	return &testApp{handler: router, holder: holder, storage: storage, backend: backend}
}

func (a *testApp) login(t *testing.T, role models.Role) {
	t.Helper()
	require.NoError(t, a.holder.Begin(context.Background(), testSID, models.Session{
		ID: "u1", Name: "Ayesha", Role: role, Token: "tok", Course: "Web", Batch: "Batch12",
	}))
}

func (a *testApp) selectScope(t *testing.T, course, batch string) {
	t.Helper()
	require.NoError(t, a.holder.Select(context.Background(), testSID, models.Selection{Course: course, Batch: batch}))
}

func (a *testApp) do(t *testing.T, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.AddCookie(&http.Cookie{Name: "portal_sid", Value: testSID})

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) postForm(t *testing.T, path string, values url.Values) *httptest.ResponseRecorder {
	return a.do(t, http.MethodPost, path, bytes.NewBufferString(values.Encode()), "application/x-www-form-urlencoded")
}

func decodePage(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) Page {
	t.Helper()
	var raw struct {
		Page
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw), rec.Body.String())
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return raw.Page
}

func TestLoginRedirectsByRole(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/login", url.Values{"email": {"t@school.io"}, "password": {"secret"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/teacher", rec.Header().Get("Location"))

	raw, ok, err := app.storage.Get(context.Background(), testSID, repository.KeyUser)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"role":"teacher"`)

	// повторный заход на /login ведёт домой
	rec = app.do(t, http.MethodGet, "/login", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/teacher", rec.Header().Get("Location"))
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/login", url.Values{"email": {"t@school.io"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	page := decodePage(t, rec, nil)
	require.NotNil(t, page.Flash)
	assert.Equal(t, "Invalid credentials", page.Flash.Message)
}

func TestRegisterPasswordMismatch(t *testing.T) {
	app := newTestApp(t)

	rec := app.postForm(t, "/register", url.Values{
		"name":            {"Ann"},
		"email":           {"ann@school.io"},
		"password":        {"secret1"},
		"confirmPassword": {"secret2"},
		"role":            {"teacher"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	page := decodePage(t, rec, nil)
	assert.Equal(t, "Passwords do not match", page.Errors["confirmPassword"])
	assert.Equal(t, "Passwords do not match", page.Flash.Message)
	assert.Zero(t, app.backend.total())
}

func TestLogoutClearsStorage(t *testing.T) {
	app := newTestApp(t)
	app.login(t, models.RoleTeacher)

	rec := app.do(t, http.MethodPost, "/logout", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	for _, key := range []string{repository.KeyUser, repository.KeyAuthToken} {
		_, ok, err := app.storage.Get(context.Background(), testSID, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}

	rec = app.do(t, http.MethodGet, "/teacher", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestGuardRedirects(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/teacher/assignments", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	app.login(t, models.RoleStudent)
	rec = app.do(t, http.MethodGet, "/teacher/assignments", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = app.do(t, http.MethodGet, "/student/notes", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAssignmentRowMarksLabel(t *testing.T) {
	app := newTestApp(t)
	app.login(t, models.RoleTeacher)
	app.selectScope(t, "Web", "Batch12")
	app.backend.rawAssignments = `[{"_id":1,"title":"HW1","totalMarks":50}]`

	rec := app.do(t, http.MethodGet, "/teacher/assignments", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data service.AssignmentsPage
	decodePage(t, rec, &data)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "HW1", data.Rows[0].Title)
	assert.Equal(t, "0/50", data.Rows[0].Marks)
	assert.Equal(t, "Web", app.backend.lastQuery.Get("course"))
	assert.Equal(t, "Batch12", app.backend.lastQuery.Get("batch"))
}

func TestEmptySelectionMakesNoFetch(t *testing.T) {
	app := newTestApp(t)
	app.login(t, models.RoleTeacher)

	rec := app.do(t, http.MethodGet, "/teacher/assignments", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var data service.AssignmentsPage
	decodePage(t, rec, &data)
	assert.Empty(t, data.Rows)
	assert.Zero(t, app.backend.total())
}

func TestCreateAssignmentRefetchesAndClosesDialog(t *testing.T) {
	app := newTestApp(t)
	app.login(t, models.RoleTeacher)
	app.selectScope(t, "Web", "Batch12")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{
		"title":       "HW2",
		"dueDate":     "2024-06-01",
		"description": "Forms",
		"totalMarks":  "20",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", "brief.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.4\n"))
	require.NoError(t, mw.Close())

	rec := app.do(t, http.MethodPost, "/teacher/assignments", &body, mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data service.AssignmentsPage
	page := decodePage(t, rec, &data)
	assert.False(t, data.DialogOpen)
	assert.Equal(t, FlashSuccess, page.Flash.Level)
	require.Len(t, data.Rows, 1)
	assert.Equal(t, "HW2", data.Rows[0].Title)
	assert.Equal(t, "0/20", data.Rows[0].Marks)
	assert.Equal(t, 1, app.backend.count("GET /assignments/filter"))
}

func TestCreateAssignmentRejectsTextFile(t *testing.T) {
	app := newTestApp(t)
	app.login(t, models.RoleTeacher)
	app.selectScope(t, "Web", "Batch12")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{"title": "HW2", "dueDate": "2024-06-01", "description": "d", "totalMarks": "20"} {
		require.NoError(t, mw.WriteField(k, v))
	}
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("just text"))
	require.NoError(t, mw.Close())

	rec := app.do(t, http.MethodPost, "/teacher/assignments", &body, mw.FormDataContentType())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Zero(t, app.backend.total())
}

func TestDeleteAssignment(t *testing.T) {
	app := newTestApp(t)
	app.login(t, models.RoleTeacher)
	app.selectScope(t, "Web", "Batch12")
	app.backend.assignments = []models.Assignment{{ID: "1", Title: "HW1"}, {ID: "2", Title: "HW2"}}

	rec := app.do(t, http.MethodDelete, "/teacher/assignments/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data service.AssignmentsPage
	decodePage(t, rec, &data)
	for _, row := range data.Rows {
		assert.NotEqual(t, "1", row.ID)
	}
	assert.Len(t, data.Rows, 1)
}

func TestRejectedTokenEndsSession(t *testing.T) {
	app := newTestApp(t)
	app.login(t, models.RoleTeacher)
	app.selectScope(t, "Web", "Batch12")
	app.backend.rejectToken = true

	rec := app.do(t, http.MethodGet, "/teacher/assignments", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	_, err := app.holder.Current(context.Background(), testSID)
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestNavigate(t *testing.T) {
	app := newTestApp(t)
	app.login(t, models.RoleTeacher)

	rec := app.do(t, http.MethodGet, "/teacher", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodePage(t, rec, nil)
	require.NotNil(t, page.Shell)
	assert.Equal(t, shell.Dashboard, page.Shell.Selected)

	rec = app.do(t, http.MethodPost, "/teacher/navigate", bytes.NewBufferString(`{"section":"submit-assignment"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	app.selectScope(t, "Web", "Batch12")
	rec = app.do(t, http.MethodPost, "/teacher/navigate", bytes.NewBufferString(`{"section":"notes"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var notes service.NotesPage
	page = decodePage(t, rec, &notes)
	assert.Equal(t, "notes", page.View)
	require.Len(t, notes.Notes, 1)
	assert.Equal(t, "Lecture 1", notes.Notes[0].Title)

	// выбранный раздел сохраняется между запросами
	rec = app.do(t, http.MethodGet, "/teacher", nil, "")
	page = decodePage(t, rec, nil)
	assert.Equal(t, shell.Notes, page.Shell.Selected)
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"storage":"ok"`))
}

func TestGradeRejectsInfiniteMarks(t *testing.T) {
	app := newTestApp(t)
	app.login(t, models.RoleTeacher)
	app.selectScope(t, "Web", "Batch12")

	rec := app.do(t, http.MethodPut, "/teacher/marking/a1/submissions/s1",
		bytes.NewBufferString(url.Values{"marks": {"Inf"}}.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	page := decodePage(t, rec, nil)
	assert.Equal(t, "must be a number", page.Errors["marks"])
	assert.Zero(t, app.backend.total())
}
