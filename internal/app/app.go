package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/config"
	"github.com/RubachokBoss/assignment-portal/internal/database"
	"github.com/RubachokBoss/assignment-portal/internal/delivery/httpd"
	"github.com/RubachokBoss/assignment-portal/internal/grading"
	"github.com/RubachokBoss/assignment-portal/internal/middleware"
	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
	"github.com/RubachokBoss/assignment-portal/internal/server"
	"github.com/RubachokBoss/assignment-portal/internal/service"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
	"github.com/RubachokBoss/assignment-portal/internal/shell"
	"github.com/RubachokBoss/assignment-portal/internal/worker"
)

const janitorInterval = 10 * time.Minute

// purger drops per-session state older than cutoff.
type purger interface {
	Purge(cutoff time.Time) int
}

type App struct {
	server    *server.Server
	logger    zerolog.Logger
	config    *config.Config
	db        *sql.DB
	storage   repository.StorageRepository
	publisher integration.ActivityPublisher
	pool      *worker.WorkerPool
	caches    []purger

	stopJanitor context.CancelFunc
	janitorDone chan struct{}
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{
		logger: log,
		config: cfg,
	}

	// Хранилище сессий
	switch cfg.Session.Store {
	case "postgres":
		if err := database.Apply(cfg.Database, "up"); err != nil {
			return nil, err
		}

		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}

		log.Info().Msg("Database connection established")
		a.db = db
		a.storage = repository.NewPostgresStorage(db, log)
	default:
		a.storage = repository.NewMemoryStorage()
	}

	// Интеграционные клиенты
	lms := integration.NewLMSClient(
		cfg.Backend.URL,
		cfg.Backend.Timeout,
		cfg.Backend.RetryCount,
		cfg.Backend.RetryDelay,
		log,
	)

	a.publisher = integration.NewNopPublisher(log)
	if cfg.RabbitMQ.Enabled {
		publisher, err := integration.NewRabbitMQPublisher(
			cfg.RabbitMQ.URL,
			cfg.RabbitMQ.Exchange,
			cfg.RabbitMQ.RoutingKey,
			cfg.RabbitMQ.QueueName,
			log,
		)
		if err != nil {
			// Портал работает и без брокера
			log.Error().Err(err).Msg("Failed to create RabbitMQ publisher, activity events are dropped")
		} else {
			a.publisher = publisher
		}
	}

	a.pool = worker.NewWorkerPool(cfg.Workers.Count, 0, log)
	a.pool.Start()

	holder := session.NewHolder(a.storage, log)
	activity := service.NewActivityRecorder(a.publisher, a.pool, log)
	grader := grading.New(cfg.Grading.PassThreshold)

	// Списки общие: оценивание и кабинет студента читают тот же кэш заданий
	assignmentsView := service.NewListView[models.Assignment]("assignments", lms.ListAssignments, log)
	notesView := service.NewListView[models.Note]("notes", lms.ListNotes, log)
	a.caches = []purger{assignmentsView, notesView}

	// Сервисы
	handler := httpd.NewHandler(httpd.Deps{
		Holder:      holder,
		Navigator:   shell.NewNavigator(holder),
		Storage:     a.storage,
		Pool:        a.pool,
		Auth:        service.NewAuthService(holder, lms, activity, log, assignmentsView, notesView),
		Dashboard:   service.NewDashboardService(holder, lms, log),
		Assignments: service.NewAssignmentService(holder, lms, assignmentsView, activity, log),
		Notes:       service.NewNoteService(holder, lms, notesView, activity, log),
		Marking:     service.NewMarkingService(holder, lms, assignmentsView, grader, activity, log),
		Student:     service.NewStudentService(holder, lms, assignmentsView, grader, activity, log),
		Profile:     service.NewProfileService(holder, lms, log, assignmentsView, notesView),
		MaxUpload:   cfg.Backend.MaxUploadSize,
	}, log)

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	a.server = server.New(server.Config{
		Address:         cfg.Server.Address,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		IdleTimeout:     cfg.Server.IdleTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, log)

	a.server.SetupMiddleware(
		middleware.NewCORS(cfg.CORS),
		middleware.Timeout(cfg.Server.RequestTimeout),
		middleware.RequestLogger(log),
		middleware.Recovery(log),
		middleware.SessionCookie(middleware.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			TTL:    cfg.Session.TTL,
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	a.stopJanitor = cancel
	a.janitorDone = make(chan struct{})
	go a.janitor(ctx)

	return a, nil
}

// Handler is the complete middleware chain with all routes.
func (a *App) Handler() http.Handler {
	return a.server.Handler()
}

func (a *App) Run() error {
	a.logger.Info().Msgf("Starting assignment portal on %s", a.config.Server.Address)
	if err := a.server.Start(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info().Msg("Shutting down assignment portal...")

	// Сначала перестаём принимать запросы
	err := a.server.Shutdown(ctx)

	a.stopJanitor()
	<-a.janitorDone

	// Пул дописывает события в очереди до закрытия брокера
	a.pool.Stop()

	if err := a.publisher.Close(); err != nil {
		a.logger.Error().Err(err).Msg("Failed to close activity publisher")
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to close database connection")
		}
	}

	return err
}

// janitor drops sessions idle longer than the session TTL.
func (a *App) janitor(ctx context.Context) {
	defer close(a.janitorDone)

	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.purge(ctx, time.Now().Add(-a.config.Session.TTL))
		}
	}
}

func (a *App) purge(ctx context.Context, cutoff time.Time) {
	n, err := a.storage.PurgeBefore(ctx, cutoff)
	if err != nil {
		a.logger.Error().Err(err).Msg("Failed to purge expired sessions")
		return
	}

	cached := 0
	for _, c := range a.caches {
		cached += c.Purge(cutoff)
	}

	if n > 0 || cached > 0 {
		a.logger.Info().Int64("sessions", n).Int("cached_lists", cached).Msg("Expired sessions purged")
	}
}
