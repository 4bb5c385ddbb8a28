package session

import (
	"context"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

type ctxKey int

const (
	idKey ctxKey = iota
	userKey
)

func WithID(ctx context.Context, sid string) context.Context {
	return context.WithValue(ctx, idKey, sid)
}

func IDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(idKey).(string)
	return sid
}

func WithUser(ctx context.Context, s *models.Session) context.Context {
	return context.WithValue(ctx, userKey, s)
}

// UserFromContext is set only behind the role guard.
func UserFromContext(ctx context.Context) *models.Session {
	s, _ := ctx.Value(userKey).(*models.Session)
	return s
}
