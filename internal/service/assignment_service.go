package service

import (
	"context"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/grading"
	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

type AssignmentService interface {
	List(ctx context.Context, sid string, user *models.Session) (*AssignmentsPage, error)
	Save(ctx context.Context, sid string, user *models.Session, id string, in AssignmentInput) (*AssignmentsPage, error)
	Delete(ctx context.Context, sid string, user *models.Session, id string) (*AssignmentsPage, error)
}

type AssignmentInput struct {
	Title       string  `form:"title" validate:"required"`
	DueDate     string  `form:"dueDate" validate:"required"`
	Description string  `form:"description" validate:"required"`
	Link        string  `form:"link" validate:"omitempty,url"`
	TotalMarks  string  `form:"totalMarks" validate:"required,numeric"`
	File        *Upload `form:"-"`
}

type AssignmentRow struct {
	models.Assignment
	Marks string `json:"marks"`
}

type AssignmentsPage struct {
	Selection  models.Selection `json:"selection"`
	Rows       []AssignmentRow  `json:"rows"`
	DialogOpen bool             `json:"dialogOpen"`
	Warning    string           `json:"warning,omitempty"`
}

type assignmentService struct {
	holder   *session.Holder
	lms      integration.LMSClient
	view     *ListView[models.Assignment]
	activity *ActivityRecorder
	logger   zerolog.Logger
}

func NewAssignmentService(
	holder *session.Holder,
	lms integration.LMSClient,
	view *ListView[models.Assignment],
	activity *ActivityRecorder,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		holder:   holder,
		lms:      lms,
		view:     view,
		activity: activity,
		logger:   logger.With().Str("component", "assignment_service").Logger(),
	}
}

func (s *assignmentService) List(ctx context.Context, sid string, user *models.Session) (*AssignmentsPage, error) {
	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}
	sel, err := scope(ctx, s.holder, sid, user)
	if err != nil {
		return nil, err
	}
	return s.page(ctx, sid, token, sel)
}

func (s *assignmentService) Save(ctx context.Context, sid string, user *models.Session, id string, in AssignmentInput) (*AssignmentsPage, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if total, err := strconv.ParseFloat(in.TotalMarks, 64); err != nil || total <= 0 || math.IsInf(total, 0) {
		return nil, newValidationError("totalMarks", "must be greater than 0")
	}

	sel, err := scope(ctx, s.holder, sid, user)
	if err != nil {
		return nil, err
	}
	if !sel.Complete() {
		return nil, ErrSelectionRequired
	}

	form := integration.NewForm().
		Set("title", in.Title).
		Set("dueDate", in.DueDate).
		Set("description", in.Description).
		Set("link", in.Link).
		Set("totalMarks", in.TotalMarks).
		Set("course", sel.Course).
		Set("batch", sel.Batch)
	if err := attach(form, "file", in.File, documentTypes); err != nil {
		return nil, err
	}

	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}

	if id == "" {
		err = s.lms.CreateAssignment(ctx, token, form)
	} else {
		err = s.lms.UpdateAssignment(ctx, token, id, form)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("assignment_id", id).Msg("Failed to save assignment")
		return nil, wrapOp("save assignment", err)
	}

	s.logger.Info().Str("assignment_id", id).Str("title", in.Title).Msg("Assignment saved")
	s.activity.Record(models.EventAssignmentSaved, user, id, map[string]string{
		"title":  in.Title,
		"course": sel.Course,
		"batch":  sel.Batch,
	})

	return s.page(ctx, sid, token, sel)
}

func (s *assignmentService) Delete(ctx context.Context, sid string, user *models.Session, id string) (*AssignmentsPage, error) {
	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}
	sel, err := scope(ctx, s.holder, sid, user)
	if err != nil {
		return nil, err
	}

	if err := s.lms.DeleteAssignment(ctx, token, id); err != nil {
		s.logger.Error().Err(err).Str("assignment_id", id).Msg("Failed to delete assignment")
		return nil, wrapOp("delete assignment", err)
	}

	s.view.Drop(sid, sel, func(a models.Assignment) bool { return a.ID == id })
	s.logger.Info().Str("assignment_id", id).Msg("Assignment deleted")
	s.activity.Record(models.EventAssignmentDeleted, user, id, nil)

	return s.page(ctx, sid, token, sel)
}

// page refetches the list; the editor dialog is closed on every page it
// returns.
func (s *assignmentService) page(ctx context.Context, sid, token string, sel models.Selection) (*AssignmentsPage, error) {
	listing, err := s.view.Load(ctx, sid, token, sel)
	if err != nil {
		return nil, err
	}

	rows := make([]AssignmentRow, 0, len(listing.Items))
	for _, a := range listing.Items {
		rows = append(rows, AssignmentRow{Assignment: a, Marks: grading.MarksLabel(nil, a.TotalMarks)})
	}

	return &AssignmentsPage{
		Selection: sel,
		Rows:      rows,
		Warning:   listing.Warning,
	}, nil
}
