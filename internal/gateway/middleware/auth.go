package middleware

import (
	"context"
	"net/http"

	"animaldex/internal/gateway/entity"
)

// SessionCookie carries the opaque session token.
const SessionCookie = "animaldex_session"

type ctxKeyIdentity struct{}

// SessionResolver maps a session token to the logged-in handle.
type SessionResolver interface {
	Identity(token string) (entity.Handle, bool)
}

// WithIdentity attaches the authenticated handle to the context.
func WithIdentity(ctx context.Context, handle entity.Handle) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity{}, handle)
}

// IdentityFrom returns the authenticated handle, if any.
func IdentityFrom(ctx context.Context) (entity.Handle, bool) {
	if v := ctx.Value(ctxKeyIdentity{}); v != nil {
		if h, ok := v.(entity.Handle); ok && !h.IsZero() {
			return h, true
		}
	}
	return "", false
}

// Session resolves the session cookie and stores the identity in the
// request context. Requests without a valid session pass through
// anonymous; handlers that need an identity reject them there.
func Session(resolver SessionResolver, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			if handle, ok := resolver.Identity(cookie.Value); ok {
				r = r.WithContext(WithIdentity(r.Context(), handle))
			}
		}
		next.ServeHTTP(w, r)
	})
}
