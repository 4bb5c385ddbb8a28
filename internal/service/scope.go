package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/service/integration"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

// SessionCache is per-session view state that must not outlive the session.
type SessionCache interface {
	Forget(sid string)
}

// bearer reads the token from session storage. A missing token is an
// authorization failure like any other.
func bearer(ctx context.Context, holder *session.Holder, sid string) (string, error) {
	tok, err := holder.Token(ctx, sid)
	if errors.Is(err, session.ErrNoSession) {
		return "", fmt.Errorf("%w: %w", integration.ErrUnauthorized, err)
	}
	return tok, err
}

// scope is the course/batch a user's views are filtered by. Teachers pick it
// on the dashboard, students carry it on their account unless they have
// picked one explicitly.
func scope(ctx context.Context, holder *session.Holder, sid string, user *models.Session) (models.Selection, error) {
	sel, err := holder.Selection(ctx, sid)
	if err != nil {
		return models.Selection{}, err
	}
	if user.Role == models.RoleStudent && !sel.Complete() {
		return models.Selection{Course: user.Course, Batch: user.Batch}, nil
	}
	return sel, nil
}

func isUnauthorized(err error) bool {
	return errors.Is(err, integration.ErrUnauthorized)
}
