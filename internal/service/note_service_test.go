package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
)

func newNoteService(fx *fixture) NoteService {
	view := NewListView("notes", fx.lms.ListNotes, zerolog.Nop())
	return NewNoteService(fx.holder, fx.lms, view, nil, zerolog.Nop())
}

func TestNoteSaveAndDelete(t *testing.T) {
	fx := newFixture()
	user := fx.login(models.RoleTeacher)
	fx.selectScope("Web", "Batch12")
	fx.lms.notes = []models.Note{{ID: "n1", Title: "Lecture 1"}}
	svc := newNoteService(fx)

	page, err := svc.Save(context.Background(), testSID, user, "", NoteInput{
		Title:   "Lecture 2",
		Date:    "2024-05-02",
		Content: "Closures",
		Link:    "https://example.org/slides",
	})
	require.NoError(t, err)
	assert.False(t, page.DialogOpen)
	require.Len(t, page.Notes, 2)
	assert.Equal(t, 1, fx.lms.count("CreateNote"))

	batch, _ := fx.lms.lastForm.Value("batch")
	assert.Equal(t, "Batch12", batch)

	page, err = svc.Delete(context.Background(), testSID, user, "n1")
	require.NoError(t, err)
	require.Len(t, page.Notes, 1)
	assert.Equal(t, "Lecture 2", page.Notes[0].Title)
}

func TestNoteListKeepsPreviousOnFailure(t *testing.T) {
	fx := newFixture()
	user := fx.login(models.RoleTeacher)
	fx.selectScope("Web", "Batch12")
	fx.lms.notes = []models.Note{{ID: "n1", Title: "Lecture 1"}}
	svc := newNoteService(fx)

	_, err := svc.List(context.Background(), testSID, user)
	require.NoError(t, err)

	fx.lms.listErr = &integration.APIError{Status: 500}
	page, err := svc.List(context.Background(), testSID, user)
	require.NoError(t, err)
	require.Len(t, page.Notes, 1)
	assert.Equal(t, "n1", page.Notes[0].ID)
	assert.NotEmpty(t, page.Warning)
}

func TestNoteSaveRejectsBadLink(t *testing.T) {
	fx := newFixture()
	user := fx.login(models.RoleTeacher)
	fx.selectScope("Web", "Batch12")
	svc := newNoteService(fx)

	_, err := svc.Save(context.Background(), testSID, user, "n1", NoteInput{
		Title: "Lecture", Date: "2024-05-02", Content: "x", Link: "not a url",
	})
	var v *ValidationError
	require.True(t, errors.As(err, &v))
	assert.NotEmpty(t, v.Fields["link"])
	assert.Zero(t, fx.lms.total())
}

func TestNoteDeleteWithFailedRefetch(t *testing.T) {
	fx := newFixture()
	user := fx.login(models.RoleTeacher)
	fx.selectScope("Web", "Batch12")
	fx.lms.notes = []models.Note{{ID: "n1", Title: "Lecture 1"}, {ID: "n2", Title: "Lecture 2"}}
	svc := newNoteService(fx)

	_, err := svc.List(context.Background(), testSID, user)
	require.NoError(t, err)

	fx.lms.listErr = errors.New("connection reset")
	page, err := svc.Delete(context.Background(), testSID, user, "n1")
	require.NoError(t, err)
	assert.Equal(t, "Failed to load notes: please try again later", page.Warning)
	require.Len(t, page.Notes, 1)
	assert.Equal(t, "n2", page.Notes[0].ID)
}
