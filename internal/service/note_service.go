package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

type NoteService interface {
	List(ctx context.Context, sid string, user *models.Session) (*NotesPage, error)
	Save(ctx context.Context, sid string, user *models.Session, id string, in NoteInput) (*NotesPage, error)
	Delete(ctx context.Context, sid string, user *models.Session, id string) (*NotesPage, error)
}

type NoteInput struct {
	Title   string  `form:"title" validate:"required"`
	Date    string  `form:"date" validate:"required"`
	Content string  `form:"content" validate:"required"`
	Link    string  `form:"link" validate:"omitempty,url"`
	File    *Upload `form:"-"`
}

type NotesPage struct {
	Selection  models.Selection `json:"selection"`
	Notes      []models.Note    `json:"notes"`
	DialogOpen bool             `json:"dialogOpen"`
	Warning    string           `json:"warning,omitempty"`
}

type noteService struct {
	holder   *session.Holder
	lms      integration.LMSClient
	view     *ListView[models.Note]
	activity *ActivityRecorder
	logger   zerolog.Logger
}

func NewNoteService(
	holder *session.Holder,
	lms integration.LMSClient,
	view *ListView[models.Note],
	activity *ActivityRecorder,
	logger zerolog.Logger,
) NoteService {
	return &noteService{
		holder:   holder,
		lms:      lms,
		view:     view,
		activity: activity,
		logger:   logger.With().Str("component", "note_service").Logger(),
	}
}

func (s *noteService) List(ctx context.Context, sid string, user *models.Session) (*NotesPage, error) {
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

func (s *noteService) Save(ctx context.Context, sid string, user *models.Session, id string, in NoteInput) (*NotesPage, error) {
	if err := validateInput(in); err != nil {
		return nil, err
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
		Set("date", in.Date).
		Set("content", in.Content).
		Set("link", in.Link).
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
		err = s.lms.CreateNote(ctx, token, form)
	} else {
		err = s.lms.UpdateNote(ctx, token, id, form)
	}
	if err != nil {
		s.logger.Error().Err(err).Str("note_id", id).Msg("Failed to save note")
		return nil, wrapOp("save note", err)
	}

	s.activity.Record(models.EventNoteSaved, user, id, map[string]string{"title": in.Title})

	return s.page(ctx, sid, token, sel)
}

func (s *noteService) Delete(ctx context.Context, sid string, user *models.Session, id string) (*NotesPage, error) {
	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}
	sel, err := scope(ctx, s.holder, sid, user)
	if err != nil {
		return nil, err
	}

	if err := s.lms.DeleteNote(ctx, token, id); err != nil {
		s.logger.Error().Err(err).Str("note_id", id).Msg("Failed to delete note")
		return nil, wrapOp("delete note", err)
	}

	s.view.Drop(sid, sel, func(n models.Note) bool { return n.ID == id })
	s.activity.Record(models.EventNoteDeleted, user, id, nil)

	return s.page(ctx, sid, token, sel)
}

func (s *noteService) page(ctx context.Context, sid, token string, sel models.Selection) (*NotesPage, error) {
	listing, err := s.view.Load(ctx, sid, token, sel)
	if err != nil {
		return nil, err
	}
	return &NotesPage{
		Selection: sel,
		Notes:     listing.Items,
		Warning:   listing.Warning,
	}, nil
}
