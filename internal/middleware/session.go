package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

const LoginPath = "/login"

type CookieOptions struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// SessionCookie puts the browser's session id into the request context,
// issuing a fresh one when the cookie is absent or malformed.
func SessionCookie(opts CookieOptions) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if c, err := r.Cookie(opts.Name); err == nil {
				if id, err := uuid.Parse(c.Value); err == nil {
					sid = id.String()
				}
			}

			if sid == "" {
				sid = uuid.NewString()
			}

			// срок жизни продлевается на каждом запросе
			http.SetCookie(w, &http.Cookie{
				Name:     opts.Name,
				Value:    sid,
				Path:     "/",
				MaxAge:   int(opts.TTL.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			next.ServeHTTP(w, r.WithContext(session.WithID(r.Context(), sid)))
		}
		return http.HandlerFunc(fn)
	}
}

// RequireRole lets through only sessions of the given role. Anything else
// is sent to the login page.
func RequireRole(holder *session.Holder, role models.Role, log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			sid := session.IDFromContext(r.Context())

			user, err := holder.Current(r.Context(), sid)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					log.Error().Err(err).Str("session_id", sid).Msg("Failed to read session")
				}
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			if role != "" && user.Role != role {
				log.Warn().
					Str("session_id", sid).
					Str("role", user.Role.String()).
					Str("required", role.String()).
					Str("path", r.URL.Path).
					Msg("Role mismatch")
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), user)))
		}
		return http.HandlerFunc(fn)
	}
}
