package service

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/RubachokBoss/assignment-portal/internal/grading"
	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

type MarkingService interface {
	Overview(ctx context.Context, sid string, user *models.Session, assignmentID string) (*MarkingPage, error)
	Grade(ctx context.Context, sid string, user *models.Session, assignmentID, submissionID string, in GradeInput) (*MarkingPage, error)
	SetLock(ctx context.Context, sid string, user *models.Session, assignmentID string, locked bool) (*MarkingPage, error)
}

type GradeInput struct {
	Marks    *float64 `form:"marks" json:"marks" validate:"required,gte=0"`
	Comments string   `form:"comments" json:"comments"`
}

type MarkingRow struct {
	models.Submission
	MarksLabel string             `json:"marksLabel"`
	Result     models.GradeResult `json:"result"`
}

type MarkingPage struct {
	Selection   models.Selection    `json:"selection"`
	Assignments []models.Assignment `json:"assignments"`
	Assignment  *models.Assignment  `json:"assignment,omitempty"`
	Rows        []MarkingRow        `json:"rows"`
	Stats       *grading.Stats      `json:"stats,omitempty"`
	Threshold   float64             `json:"threshold"`
	Warning     string              `json:"warning,omitempty"`
}

type markingService struct {
	holder      *session.Holder
	lms         integration.LMSClient
	assignments *ListView[models.Assignment]
	grader      grading.Grader
	activity    *ActivityRecorder
	logger      zerolog.Logger
}

func NewMarkingService(
	holder *session.Holder,
	lms integration.LMSClient,
	assignments *ListView[models.Assignment],
	grader grading.Grader,
	activity *ActivityRecorder,
	logger zerolog.Logger,
) MarkingService {
	return &markingService{
		holder:      holder,
		lms:         lms,
		assignments: assignments,
		grader:      grader,
		activity:    activity,
		logger:      logger.With().Str("component", "marking_service").Logger(),
	}
}

// Overview lists the assignments of the selection and, when assignmentID is
// given, the submissions of that assignment with their statistics.
func (s *markingService) Overview(ctx context.Context, sid string, user *models.Session, assignmentID string) (*MarkingPage, error) {
	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}
	sel, err := scope(ctx, s.holder, sid, user)
	if err != nil {
		return nil, err
	}

	listing, err := s.assignments.Load(ctx, sid, token, sel)
	if err != nil {
		return nil, err
	}

	page := &MarkingPage{
		Selection:   sel,
		Assignments: listing.Items,
		Rows:        []MarkingRow{},
		Threshold:   s.grader.Threshold(),
		Warning:     listing.Warning,
	}
	if assignmentID == "" {
		return page, nil
	}

	assignment, ok := findAssignment(listing.Items, assignmentID)
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
	}
	page.Assignment = &assignment

	var (
		subs     []models.Submission
		students int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		subs, err = s.lms.ListSubmissions(gctx, token, integration.SubmissionFilter{AssignmentID: assignmentID})
		return err
	})
	g.Go(func() error {
		var err error
		students, err = s.lms.CountStudents(gctx, token, sel)
		return err
	})
	if err := g.Wait(); err != nil {
		if isUnauthorized(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("assignment_id", assignmentID).Msg("Failed to fetch submissions")
		page.Warning = "Failed to load submissions: " + integration.MessageOr(err, tryAgain)
		return page, nil
	}

	for _, sub := range subs {
		page.Rows = append(page.Rows, MarkingRow{
			Submission: sub,
			MarksLabel: grading.MarksLabel(sub.Marks, assignment.TotalMarks),
			Result:     s.grader.Result(sub.Marks, assignment.TotalMarks),
		})
	}
	stats := s.grader.Summarize(subs, assignment.TotalMarks, students)
	page.Stats = &stats

	return page, nil
}

func (s *markingService) Grade(ctx context.Context, sid string, user *models.Session, assignmentID, submissionID string, in GradeInput) (*MarkingPage, error) {
	// Inf и NaN проходят gte=0 и не сериализуются в JSON
	if in.Marks != nil && (math.IsInf(*in.Marks, 0) || math.IsNaN(*in.Marks)) {
		return nil, newValidationError("marks", "must be a number")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	sel, err := scope(ctx, s.holder, sid, user)
	if err != nil {
		return nil, err
	}

	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}

	// блокировка проверяется по последнему загруженному списку
	assignment, ok := s.assignments.Find(sid, sel, func(a models.Assignment) bool { return a.ID == assignmentID })
	if !ok {
		listing, err := s.assignments.Load(ctx, sid, token, sel)
		if err != nil {
			return nil, err
		}
		if assignment, ok = findAssignment(listing.Items, assignmentID); !ok {
			return nil, fmt.Errorf("assignment %s: %w", assignmentID, ErrNotFound)
		}
	}
	if assignment.Locked {
		return nil, ErrAssignmentLocked
	}
	if assignment.TotalMarks > 0 && *in.Marks > assignment.TotalMarks {
		return nil, newValidationError("marks", "must not exceed "+strconv.FormatFloat(assignment.TotalMarks, 'f', -1, 64))
	}

	req := integration.GradeRequest{Marks: *in.Marks, Comments: in.Comments}
	if err := s.lms.GradeSubmission(ctx, token, submissionID, req); err != nil {
		s.logger.Error().Err(err).Str("submission_id", submissionID).Msg("Failed to grade submission")
		return nil, wrapOp("update marks", err)
	}

	s.logger.Info().
		Str("assignment_id", assignmentID).
		Str("submission_id", submissionID).
		Float64("marks", *in.Marks).
		Msg("Submission graded")
	s.activity.Record(models.EventSubmissionGraded, user, submissionID, map[string]string{
		"assignment_id": assignmentID,
		"marks":         strconv.FormatFloat(*in.Marks, 'f', -1, 64),
	})

	return s.Overview(ctx, sid, user, assignmentID)
}

func (s *markingService) SetLock(ctx context.Context, sid string, user *models.Session, assignmentID string, locked bool) (*MarkingPage, error) {
	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}

	if err := s.lms.SetAssignmentLock(ctx, token, assignmentID, locked); err != nil {
		s.logger.Error().Err(err).Str("assignment_id", assignmentID).Msg("Failed to change lock")
		return nil, wrapOp("change lock", err)
	}

	s.activity.Record(models.EventAssignmentLocked, user, assignmentID, map[string]string{
		"locked": strconv.FormatBool(locked),
	})

	return s.Overview(ctx, sid, user, assignmentID)
}

func findAssignment(items []models.Assignment, id string) (models.Assignment, bool) {
	for _, a := range items {
		if a.ID == id {
			return a, true
		}
	}
	return models.Assignment{}, false
}
