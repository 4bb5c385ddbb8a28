// Package session holds the authenticated user's context for one browser.
//
// The Holder is the only writer of the session keys in storage: Begin on
// login, End on logout or forced re-login, Select for the dashboard
// course/batch choice and SetSection for shell navigation.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
)

var ErrNoSession = errors.New("no active session")

type Holder struct {
	storage repository.StorageRepository
	logger  zerolog.Logger
}

func NewHolder(storage repository.StorageRepository, logger zerolog.Logger) *Holder {
	return &Holder{
		storage: storage,
		logger:  logger.With().Str("component", "session").Logger(),
	}
}

// Current returns the stored session. An unreadable value counts as no
// session.
func (h *Holder) Current(ctx context.Context, sid string) (*models.Session, error) {
	raw, ok, err := h.storage.Get(ctx, sid, repository.KeyUser)
	if err != nil {
		return nil, err
	}
	if !ok || raw == "" {
		return nil, ErrNoSession
	}

	var s models.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		h.logger.Warn().Err(err).Str("session_id", sid).Msg("Failed to parse stored user")
		return nil, ErrNoSession
	}
	if s.ID == "" || !models.IsValidRole(s.Role.String()) {
		h.logger.Warn().Str("session_id", sid).Msg("Stored user is incomplete")
		return nil, ErrNoSession
	}

	return &s, nil
}

// Token returns the raw bearer token kept next to the session.
func (h *Holder) Token(ctx context.Context, sid string) (string, error) {
	tok, ok, err := h.storage.Get(ctx, sid, repository.KeyAuthToken)
	if err != nil {
		return "", err
	}
	if !ok || tok == "" {
		return "", ErrNoSession
	}
	return tok, nil
}

func (h *Holder) Begin(ctx context.Context, sid string, s models.Session) error {
	if s.ID == "" || s.Token == "" {
		return errors.New("session requires id and token")
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	if err := h.storage.Set(ctx, sid, repository.KeyAuthToken, s.Token); err != nil {
		return err
	}
	if err := h.storage.Set(ctx, sid, repository.KeyUser, string(raw)); err != nil {
		return err
	}

	h.logger.Info().
		Str("session_id", sid).
		Str("user_id", s.ID).
		Str("role", s.Role.String()).
		Msg("Session started")

	return nil
}

// End destroys the session. The course/batch selection survives, the way
// it survives a page reload.
func (h *Holder) End(ctx context.Context, sid string) error {
	if err := h.storage.Remove(ctx, sid, repository.KeyUser, repository.KeyAuthToken, repository.KeySection); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	h.logger.Info().Str("session_id", sid).Msg("Session ended")
	return nil
}

func (h *Holder) Selection(ctx context.Context, sid string) (models.Selection, error) {
	course, _, err := h.storage.Get(ctx, sid, repository.KeySelectedCourse)
	if err != nil {
		return models.Selection{}, err
	}
	batch, _, err := h.storage.Get(ctx, sid, repository.KeySelectedBatch)
	if err != nil {
		return models.Selection{}, err
	}
	return models.Selection{Course: course, Batch: batch}, nil
}

// Select stores the course/batch choice. An empty value clears the key.
func (h *Holder) Select(ctx context.Context, sid string, sel models.Selection) error {
	if err := h.put(ctx, sid, repository.KeySelectedCourse, sel.Course); err != nil {
		return err
	}
	return h.put(ctx, sid, repository.KeySelectedBatch, sel.Batch)
}

func (h *Holder) Section(ctx context.Context, sid string) (string, error) {
	v, _, err := h.storage.Get(ctx, sid, repository.KeySection)
	return v, err
}

func (h *Holder) SetSection(ctx context.Context, sid, section string) error {
	return h.put(ctx, sid, repository.KeySection, section)
}

func (h *Holder) put(ctx context.Context, sid, key, value string) error {
	if value == "" {
		return h.storage.Remove(ctx, sid, key)
	}
	return h.storage.Set(ctx, sid, key, value)
}
