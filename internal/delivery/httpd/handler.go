package httpd

import (
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/middleware"
	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/session"
	"github.com/RubachokBoss/assignment-portal/internal/shell"
	"github.com/RubachokBoss/assignment-portal/internal/worker"
)

type Deps struct {
	Holder      *session.Holder
	Navigator   *shell.Navigator
	Storage     repository.StorageRepository
	Pool        *worker.WorkerPool
	Auth        service.AuthService
	Dashboard   service.DashboardService
	Assignments service.AssignmentService
	Notes       service.NoteService
	Marking     service.MarkingService
	Student     service.StudentService
	Profile     service.ProfileService
	MaxUpload   int64
}

type Handler struct {
	Deps
	logger zerolog.Logger
}

func NewHandler(deps Deps, logger zerolog.Logger) *Handler {
	if deps.MaxUpload <= 0 {
		deps.MaxUpload = 32 << 20
	}
	return &Handler{
		Deps:   deps,
		logger: logger.With().Str("component", "httpd").Logger(),
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Get("/login", h.LoginPage)
	router.Post("/login", h.Login)
	router.Get("/register", h.RegisterPage)
	router.Post("/register", h.Register)
	router.Get("/logout", h.Logout)
	router.Post("/logout", h.Logout)

	router.Route("/teacher", func(r chi.Router) {
		r.Use(middleware.RequireRole(h.Holder, models.RoleTeacher, h.logger))

		r.Get("/", h.Home)
		r.Post("/navigate", h.Navigate)

		r.Get("/dashboard", h.Dashboard)
		r.Post("/dashboard/selection", h.SelectScope)

		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", h.ListAssignments)
			r.Post("/", h.CreateAssignment)
			r.Patch("/{id}", h.UpdateAssignment)
			r.Post("/{id}", h.UpdateAssignment)
			r.Delete("/{id}", h.DeleteAssignment)
		})

		r.Route("/notes", func(r chi.Router) {
			r.Get("/", h.ListNotes)
			r.Post("/", h.CreateNote)
			r.Patch("/{id}", h.UpdateNote)
			r.Post("/{id}", h.UpdateNote)
			r.Delete("/{id}", h.DeleteNote)
		})

		r.Route("/marking", func(r chi.Router) {
			r.Get("/", h.MarkingOverview)
			r.Get("/{assignmentID}", h.MarkingOverview)
			r.Put("/{assignmentID}/submissions/{submissionID}", h.GradeSubmission)
			r.Patch("/{assignmentID}/lock", h.SetLock)
		})
	})

	router.Route("/student", func(r chi.Router) {
		r.Use(middleware.RequireRole(h.Holder, models.RoleStudent, h.logger))

		r.Get("/", h.Home)
		r.Post("/navigate", h.Navigate)

		r.Get("/dashboard", h.Dashboard)
		r.Post("/dashboard/selection", h.SelectScope)

		r.Get("/assignments", h.PreviewAssignments)
		r.Post("/submissions", h.SubmitAssignment)
		r.Delete("/submissions/{id}", h.Unsubmit)

		r.Get("/notes", h.ListNotes)
		r.Get("/marks", h.MyMarks)
	})

	router.Route("/profile", func(r chi.Router) {
		r.Use(middleware.RequireRole(h.Holder, "", h.logger))

		r.Get("/", h.ViewProfile)
		r.Post("/", h.EditProfile)
		r.Post("/avatar", h.ChangeAvatar)
	})
}

func homePath(role models.Role) string {
	switch role {
	case models.RoleTeacher:
		return "/teacher"
	case models.RoleStudent:
		return "/student"
	default:
		return middleware.LoginPath
	}
}
