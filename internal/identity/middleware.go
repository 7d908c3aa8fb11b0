package identity

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/wasteops/wasteops/internal/shared"
)

// Middleware resolves the principal for each request from the session. A
// request without a resolvable principal proceeds unauthenticated; downstream
// guards fail closed on a nil principal.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// LoadPrincipal attaches the principal to the request context when the
// session carries a user.
func (m Middleware) LoadPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw := strings.TrimSpace(sess.User())
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Error("identity parse user id", slog.String("value", raw))
			}
			next.ServeHTTP(w, r)
			return
		}
		principal, err := m.Service.ResolvePrincipal(r.Context(), userID)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Warn("identity resolve principal", slog.Int64("user_id", userID), slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
