package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

type ProfileService interface {
	View(ctx context.Context, sid string, user *models.Session) (*models.User, error)
	Edit(ctx context.Context, sid string, user *models.Session, in ProfileInput) (*ProfileResult, error)
	ChangeAvatar(ctx context.Context, sid string, user *models.Session, avatar *Upload) (*ProfileResult, error)
}

type ProfileInput struct {
	Name               string `form:"name" validate:"required"`
	Email              string `form:"email" validate:"required,email"`
	CurrentPassword    string `form:"currentPassword" validate:"required"`
	NewPassword        string `form:"newPassword"`
	ConfirmNewPassword string `form:"confirmNewPassword" validate:"eqfield=NewPassword"`
}

// ProfileResult always ends the session: the stored identity is stale once
// the account changed.
type ProfileResult struct {
	Message   string `json:"message"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Relogin   bool   `json:"relogin"`
}

type profileService struct {
	holder *session.Holder
	lms    integration.LMSClient
	caches []SessionCache
	logger zerolog.Logger
}

func NewProfileService(holder *session.Holder, lms integration.LMSClient, logger zerolog.Logger, caches ...SessionCache) ProfileService {
	return &profileService{
		holder: holder,
		lms:    lms,
		caches: caches,
		logger: logger.With().Str("component", "profile_service").Logger(),
	}
}

func (s *profileService) View(ctx context.Context, sid string, user *models.Session) (*models.User, error) {
	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}

	u, err := s.lms.GetUser(ctx, token, user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to fetch profile")
		return nil, wrapOp("load profile", err)
	}
	return u, nil
}

func (s *profileService) Edit(ctx context.Context, sid string, user *models.Session, in ProfileInput) (*ProfileResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}

	form := integration.NewForm().
		Set("name", in.Name).
		Set("email", in.Email).
		Set("currentPassword", in.CurrentPassword).
		Set("newPassword", in.NewPassword).
		Set("confirmNewPassword", in.ConfirmNewPassword)

	resp, err := s.lms.EditUser(ctx, token, form)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile")
		return nil, wrapOp("update profile", err)
	}

	if err := s.relogin(ctx, sid); err != nil {
		return nil, err
	}

	return &ProfileResult{
		Message:   "Profile updated. Please log in again.",
		AvatarURL: resp.AvatarURL,
		Relogin:   true,
	}, nil
}

func (s *profileService) ChangeAvatar(ctx context.Context, sid string, user *models.Session, avatar *Upload) (*ProfileResult, error) {
	part, err := avatar.filePart("avatar", avatarTypes)
	if err != nil {
		return nil, err
	}

	token, err := bearer(ctx, s.holder, sid)
	if err != nil {
		return nil, err
	}

	if err := s.lms.ChangeAvatar(ctx, token, integration.NewForm().Attach(part)); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to change avatar")
		return nil, wrapOp("change avatar", err)
	}

	if err := s.relogin(ctx, sid); err != nil {
		return nil, err
	}

	return &ProfileResult{Message: "Avatar changed. Please log in again.", Relogin: true}, nil
}

func (s *profileService) relogin(ctx context.Context, sid string) error {
	if err := s.holder.End(ctx, sid); err != nil {
		return err
	}
	for _, c := range s.caches {
		c.Forget(sid)
	}
	return nil
}
