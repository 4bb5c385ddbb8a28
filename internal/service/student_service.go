package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/grading"
	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

type StudentService interface {
	Preview(ctx context.Context, sid string, user *models.Session) (*PreviewPage, error)
	Submit(ctx context.Context, sid string, user *models.Session, in SubmitInput) (*PreviewPage, error)
	Unsubmit(ctx context.Context, sid string, user *models.Session, submissionID string) (*PreviewPage, error)
	Marks(ctx context.Context, sid string, user *models.Session) (*MarksPage, error)
}

type SubmitInput struct {
	AssignmentID   string  `form:"assignmentId" validate:"required"`
	Name           string  `form:"name" validate:"required"`
	RollNo         string  `form:"rollNo" validate:"required"`
	Title          string  `form:"title" validate:"required"`
	Description    string  `form:"description" validate:"required"`
	SubmissionType string  `form:"submissionType" validate:"required,oneof=file link both"`
	Link           string  `form:"link" validate:"omitempty,url"`
	File           *Upload `form:"-"`
}

type PreviewRow struct {
	models.Assignment
	Status       models.AssignmentStatus `json:"status"`
	SubmissionID string                  `json:"submissionId,omitempty"`
	Marks        string                  `json:"marks"`
	Result       models.GradeResult      `json:"result"`
	Comments     string                  `json:"comments,omitempty"`
}

type PreviewPage struct {
	Selection models.Selection `json:"selection"`
	Rows      []PreviewRow     `json:"rows"`
	Status    string           `json:"status,omitempty"`
	Warning   string           `json:"warning,omitempty"`
}

type MarksRow struct {
	Title  string             `json:"title"`
	Marks  string             `json:"marks"`
	Result models.GradeResult `json:"result"`
}

type MarksPage struct {
	Rows    []MarksRow    `json:"rows"`
	Chart   grading.Chart `json:"chart"`
	Warning string        `json:"warning,omitempty"`
}

type studentService struct {
	holder      *session.Holder
	lms         integration.LMSClient
	assignments *ListView[models.Assignment]
	grader      grading.Grader
	activity    *ActivityRecorder
	logger      zerolog.Logger
	now         func() time.Time
}

func NewStudentService(
	holder *session.Holder,
	lms integration.LMSClient,
	assignments *ListView[models.Assignment],
	grader grading.Grader,
	activity *ActivityRecorder,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		holder:      holder,
		lms:         lms,
		assignments: assignments,
		grader:      grader,
		activity:    activity,
		logger:      logger.With().Str("component", "student_service").Logger(),
		now:         time.Now,
	}
}

func (s *studentService) Preview(ctx context.Context, sid string, user *models.Session) (*PreviewPage, error) {
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

	page := &PreviewPage{Selection: sel, Rows: []PreviewRow{}, Warning: listing.Warning}
	if !listing.Fetched && len(listing.Items) == 0 {
		return page, nil
	}

	subs, err := s.lms.ListSubmissions(ctx, token, integration.SubmissionFilter{StudentID: user.ID})
	if err != nil {
		if isUnauthorized(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("student_id", user.ID).Msg("Failed to fetch own submissions")
		page.Warning = "Failed to load submissions: " + integration.MessageOr(err, tryAgain)
		subs = nil
	}

	byAssignment := make(map[string]models.Submission, len(subs))
	for _, sub := range subs {
		byAssignment[sub.AssignmentID] = sub
	}

	now := s.now()
	for _, a := range listing.Items {
		sub, submitted := byAssignment[a.ID]
		row := PreviewRow{
			Assignment: a,
			Status:     grading.Status(now, a.DueDate, submitted),
			Marks:      grading.MarksLabel(nil, a.TotalMarks),
			Result:     models.ResultPending,
		}
		if submitted {
			row.SubmissionID = sub.ID
			row.Marks = grading.MarksLabel(sub.Marks, a.TotalMarks)
			row.Result = s.grader.Result(sub.Marks, a.TotalMarks)
			row.Comments = sub.Comments
		}
		page.Rows = append(page.Rows, row)
	}

	return page, nil
}

func (s *studentService) Submit(ctx context.Context, sid string, user *models.Session, in SubmitInput) (*PreviewPage, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	needFile := in.SubmissionType == string(models.SubmissionFile) || in.SubmissionType == string(models.SubmissionBoth)
	needLink := in.SubmissionType == string(models.SubmissionLink) || in.SubmissionType == string(models.SubmissionBoth)
	if (needFile && in.File == nil) || (needLink && in.Link == "") {
		return nil, newValidationError("submissionType",
			"Please fill all the fields and provide the required submission type.")
	}

	form := integration.NewForm().
		Set("studentId", user.ID).
		Set("assignmentId", in.AssignmentID).
		Set("name", in.Name).
		Set("rollNo", in.RollNo).
		Set("title", in.Title).
		Set("description", in.Description).
		Set("submissionType", in.SubmissionType)
	if needFile {
		if err := attach(form, "file", in.File, documentTypes); err != nil {
			return nil, err
		}
	}
	if needLink {
		form.Set("link", in.Link)
	}

	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}

	if err := s.lms.SubmitAssignment(ctx, token, form); err != nil {
		s.logger.Error().Err(err).Str("assignment_id", in.AssignmentID).Msg("Failed to submit assignment")
		return nil, wrapOp("submit assignment", err)
	}

	s.logger.Info().
		Str("assignment_id", in.AssignmentID).
		Str("student_id", user.ID).
		Str("type", in.SubmissionType).
		Msg("Assignment submitted")
	s.activity.Record(models.EventSubmissionCreated, user, in.AssignmentID, map[string]string{
		"submission_type": in.SubmissionType,
	})

	page, err := s.Preview(ctx, sid, user)
	if err != nil {
		return nil, err
	}
	page.Status = "Assignment submitted successfully!"
	return page, nil
}

func (s *studentService) Unsubmit(ctx context.Context, sid string, user *models.Session, submissionID string) (*PreviewPage, error) {
	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}

	if err := s.lms.Unsubmit(ctx, token, submissionID); err != nil {
		s.logger.Error().Err(err).Str("submission_id", submissionID).Msg("Failed to unsubmit assignment")
		return nil, wrapOp("unsubmit assignment", err)
	}

	s.activity.Record(models.EventSubmissionRemoved, user, submissionID, nil)

	page, err := s.Preview(ctx, sid, user)
	if err != nil {
		return nil, err
	}
	page.Status = "Submission removed."
	return page, nil
}

// Marks lists the student's graded submissions for the chart.
func (s *studentService) Marks(ctx context.Context, sid string, user *models.Session) (*MarksPage, error) {
	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}
	sel, err := scope(ctx, s.holder, sid, user)
	if err != nil {
		return nil, err
	}

	page := &MarksPage{
		Rows:  []MarksRow{},
		Chart: grading.Chart{Labels: []string{}, Data: []float64{}},
	}

	subs, err := s.lms.ListSubmissions(ctx, token, integration.SubmissionFilter{StudentID: user.ID})
	if err != nil {
		if isUnauthorized(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("student_id", user.ID).Msg("Failed to fetch marks")
		page.Warning = "Failed to load marks: " + integration.MessageOr(err, tryAgain)
		return page, nil
	}

	listing, err := s.assignments.Load(ctx, sid, token, sel)
	if err != nil {
		return nil, err
	}
	assignments := make(map[string]models.Assignment, len(listing.Items))
	for _, a := range listing.Items {
		assignments[a.ID] = a
	}

	for _, sub := range subs {
		if !sub.Graded() {
			continue
		}
		title := sub.Title
		var total float64
		if a, ok := assignments[sub.AssignmentID]; ok {
			title = a.Title
			total = a.TotalMarks
		}

		page.Rows = append(page.Rows, MarksRow{
			Title:  title,
			Marks:  grading.MarksLabel(sub.Marks, total),
			Result: s.grader.Result(sub.Marks, total),
		})
		page.Chart.Labels = append(page.Chart.Labels, title)
		page.Chart.Data = append(page.Chart.Data, *sub.Marks)
	}

	return page, nil
}
