package service

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
	"github.com/RubachokBoss/assignment-portal/internal/shell"
)

type DashboardService interface {
	Dashboard(ctx context.Context, sid string, user *models.Session) (*DashboardPage, error)
	Select(ctx context.Context, sid string, user *models.Session, sel models.Selection) (*DashboardPage, error)
}

// Card is one dashboard tile; clicking it navigates to Target.
type Card struct {
	Title  string        `json:"title"`
	Value  int           `json:"value"`
	Target shell.Section `json:"target"`
}

type DashboardPage struct {
	Selection models.Selection `json:"selection"`
	Counts    *models.Counts   `json:"counts,omitempty"`
	Cards     []Card           `json:"cards"`
	Warning   string           `json:"warning,omitempty"`
}

type dashboardService struct {
	holder *session.Holder
	lms    integration.LMSClient
	logger zerolog.Logger
}

func NewDashboardService(holder *session.Holder, lms integration.LMSClient, logger zerolog.Logger) DashboardService {
	return &dashboardService{
		holder: holder,
		lms:    lms,
		logger: logger.With().Str("component", "dashboard_service").Logger(),
	}
}

func (s *dashboardService) Dashboard(ctx context.Context, sid string, user *models.Session) (*DashboardPage, error) {
	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}
	sel, err := scope(ctx, s.holder, sid, user)
	if err != nil {
		return nil, err
	}

	page := &DashboardPage{Selection: sel, Cards: []Card{}}
	if !sel.Complete() {
		return page, nil
	}

	counts, err := s.counts(ctx, token, sel)
	if err != nil {
		if isUnauthorized(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("course", sel.Course).Str("batch", sel.Batch).Msg("Failed to fetch counts")
		page.Warning = "Failed to load dashboard: " + integration.MessageOr(err, tryAgain)
		return page, nil
	}

	page.Counts = counts
	page.Cards = []Card{
		{Title: "Students", Value: counts.Students, Target: shell.Marking},
		{Title: "Assignments", Value: counts.Assignments, Target: shell.ViewAssignments},
		{Title: "Lectures", Value: counts.Lectures, Target: shell.Notes},
	}
	return page, nil
}

// Select persists the course/batch choice and reloads the dashboard.
func (s *dashboardService) Select(ctx context.Context, sid string, user *models.Session, sel models.Selection) (*DashboardPage, error) {
	if err := s.holder.Select(ctx, sid, sel); err != nil {
		return nil, err
	}
	return s.Dashboard(ctx, sid, user)
}

func (s *dashboardService) counts(ctx context.Context, token string, sel models.Selection) (*models.Counts, error) {
	var counts models.Counts

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.lms.CountStudents(gctx, token, sel)
		counts.Students = n
		return err
	})
	g.Go(func() error {
		n, err := s.lms.CountAssignments(gctx, token, sel)
		counts.Assignments = n
		return err
	})
	g.Go(func() error {
		n, err := s.lms.CountLectures(gctx, token, sel)
		counts.Lectures = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &counts, nil
}
