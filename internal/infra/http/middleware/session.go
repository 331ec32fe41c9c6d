package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type SessionVerifier interface {
	Verify(ctx context.Context, cookie string) (string, error)
}

type ctxKey string

const ctxUserID ctxKey = "user_id"

// Session resolves the Firebase session cookie (or a Bearer token) to a uid and
// stores it in the request context. Unauthenticated requests get 401.
func Session(verifier SessionVerifier, cookieName string, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r, cookieName)
			if token == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			uid, err := verifier.Verify(r.Context(), token)
			if err != nil {
				logger.Debug("session rejected", slog.String("path", r.URL.Path), slog.Any("err", err))
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), uid)))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if v, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func WithUserID(ctx context.Context, uid string) context.Context {
	return context.WithValue(ctx, ctxUserID, uid)
}

func UserIDFromContext(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(ctxUserID).(string)
	return uid, ok && uid != ""
}
