package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
	"github.com/RubachokBoss/assignment-portal/internal/shell"
)

type AuthService interface {
	Login(ctx context.Context, sid string, in LoginInput) (*models.Session, error)
	Register(ctx context.Context, in RegisterInput) error
	Logout(ctx context.Context, sid string, user *models.Session) error
}

type LoginInput struct {
	Email    string `form:"email" json:"email" validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
}

type RegisterInput struct {
	Name            string  `form:"name" validate:"required"`
	Email           string  `form:"email" validate:"required,email"`
	Password        string  `form:"password" validate:"required,min=6"`
	ConfirmPassword string  `form:"confirmPassword" validate:"required,eqfield=Password"`
	Role            string  `form:"role" validate:"required,oneof=teacher student"`
	Gender          string  `form:"gender"`
	Course          string  `form:"course" validate:"required_if=Role student"`
	Batch           string  `form:"batch" validate:"required_if=Role student"`
	Photo           *Upload `form:"-"`
}

type authService struct {
	holder   *session.Holder
	lms      integration.LMSClient
	caches   []SessionCache
	activity *ActivityRecorder
	logger   zerolog.Logger
}

func NewAuthService(
	holder *session.Holder,
	lms integration.LMSClient,
	activity *ActivityRecorder,
	logger zerolog.Logger,
	caches ...SessionCache,
) AuthService {
	return &authService{
		holder:   holder,
		lms:      lms,
		caches:   caches,
		activity: activity,
		logger:   logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) Login(ctx context.Context, sid string, in LoginInput) (*models.Session, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	resp, err := s.lms.Login(ctx, in.Email, in.Password)
	if err != nil {
		s.logger.Warn().Err(err).Str("email", in.Email).Msg("Login failed")
		return nil, err
	}
	if !models.IsValidRole(resp.Role.String()) {
		return nil, fmt.Errorf("login returned unknown role %q", resp.Role)
	}

	user := models.Session{
		ID:     resp.ID,
		Name:   resp.Name,
		Role:   resp.Role,
		Avatar: resp.Avatar,
		Token:  resp.Token,
		Course: resp.Course,
		Batch:  resp.Batch,
	}
	if err := s.holder.Begin(ctx, sid, user); err != nil {
		return nil, err
	}
	if err := s.holder.SetSection(ctx, sid, string(shell.Initial)); err != nil {
		return nil, err
	}

	s.activity.Record(models.EventLoggedIn, &user, "", nil)
	return &user, nil
}

func (s *authService) Register(ctx context.Context, in RegisterInput) error {
	if err := validateInput(in); err != nil {
		return err
	}

	form := integration.NewForm().
		Set("name", in.Name).
		Set("email", in.Email).
		Set("password", in.Password).
		Set("role", in.Role).
		Set("gender", in.Gender).
		Set("course", in.Course).
		Set("batch", in.Batch)
	if err := attach(form, "photo", in.Photo, avatarTypes); err != nil {
		return err
	}

	if err := s.lms.Register(ctx, form); err != nil {
		s.logger.Warn().Err(err).Str("email", in.Email).Msg("Registration failed")
		return err
	}

	s.logger.Info().Str("email", in.Email).Str("role", in.Role).Msg("User registered")
	return nil
}

// Logout is idempotent: ending an absent session is not an error.
func (s *authService) Logout(ctx context.Context, sid string, user *models.Session) error {
	if err := s.holder.End(ctx, sid); err != nil && !errors.Is(err, session.ErrNoSession) {
		return err
	}
	for _, c := range s.caches {
		c.Forget(sid)
	}

	if user != nil {
		s.activity.Record(models.EventLoggedOut, user, "", nil)
	}
	return nil
}
