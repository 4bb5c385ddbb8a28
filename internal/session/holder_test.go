package session

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
)

func newHolder() (*Holder, repository.StorageRepository) {
	storage := repository.NewMemoryStorage()
	return NewHolder(storage, zerolog.Nop()), storage
}

func teacher() models.Session {
	return models.Session{
		ID:     "u1",
		Name:   "Ms Rabiya",
		Role:   models.RoleTeacher,
		Token:  "tok-1",
		Course: "Web and App Development",
		Batch:  "Batch 12",
	}
}

func TestHolderBeginAndCurrent(t *testing.T) {
	ctx := context.Background()
	h, storage := newHolder()

	_, err := h.Current(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, h.Begin(ctx, "sid", teacher()))

	s, err := h.Current(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, teacher(), *s)

	tok, err := h.Token(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	raw, ok, _ := storage.Get(ctx, "sid", repository.KeyAuthToken)
	assert.True(t, ok)
	assert.Equal(t, "tok-1", raw)
}

func TestHolderBeginRequiresIdentity(t *testing.T) {
	h, _ := newHolder()
	err := h.Begin(context.Background(), "sid", models.Session{Role: models.RoleStudent})
	assert.Error(t, err)
}

func TestHolderEndClearsUserAndToken(t *testing.T) {
	ctx := context.Background()
	h, storage := newHolder()

	require.NoError(t, h.Begin(ctx, "sid", teacher()))
	require.NoError(t, h.Select(ctx, "sid", models.Selection{Course: "Web", Batch: "Batch 12"}))
	require.NoError(t, h.SetSection(ctx, "sid", "notes"))

	require.NoError(t, h.End(ctx, "sid"))

	_, ok, _ := storage.Get(ctx, "sid", repository.KeyUser)
	assert.False(t, ok)
	_, ok, _ = storage.Get(ctx, "sid", repository.KeyAuthToken)
	assert.False(t, ok)
	section, _ := h.Section(ctx, "sid")
	assert.Empty(t, section)

	sel, err := h.Selection(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, models.Selection{Course: "Web", Batch: "Batch 12"}, sel)
}

func TestHolderCurrentIgnoresMalformedValue(t *testing.T) {
	ctx := context.Background()
	h, storage := newHolder()

	require.NoError(t, storage.Set(ctx, "sid", repository.KeyUser, "{not json"))
	_, err := h.Current(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoSession)

	require.NoError(t, storage.Set(ctx, "sid", repository.KeyUser, `{"id":"u1","role":"admin"}`))
	_, err = h.Current(ctx, "sid")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestHolderSelectClearsEmptyValues(t *testing.T) {
	ctx := context.Background()
	h, storage := newHolder()

	require.NoError(t, h.Select(ctx, "sid", models.Selection{Course: "Web", Batch: "Batch 12"}))
	require.NoError(t, h.Select(ctx, "sid", models.Selection{Course: "Tecno Kids"}))

	sel, err := h.Selection(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "Tecno Kids", sel.Course)
	assert.Empty(t, sel.Batch)
	assert.False(t, sel.Complete())

	_, ok, _ := storage.Get(ctx, "sid", repository.KeySelectedBatch)
	assert.False(t, ok)
}

func TestContextHelpers(t *testing.T) {
	ctx := WithID(context.Background(), "sid")
	assert.Equal(t, "sid", IDFromContext(ctx))
	assert.Nil(t, UserFromContext(ctx))

	s := teacher()
	ctx = WithUser(ctx, &s)
	assert.Equal(t, "u1", UserFromContext(ctx).ID)
}
