package web

import (
	"context"
	"net"
	"net/http"

	"github.com/JonMunkholm/sheetdash/internal/core"
	"github.com/JonMunkholm/sheetdash/internal/logging"
)

// WithRequestMetadata adds IP and User-Agent to context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ip := r.RemoteAddr // Already processed by TrustedRealIP
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	ctx = core.ContextWithIPAddress(ctx, ip)
	ctx = core.ContextWithUserAgent(ctx, r.Header.Get("User-Agent"))
	return ctx
}

// sessionMiddleware resolves the caller's session from its cookie, starting a
// new one when the cookie is missing or the session expired.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			id = c.Value
		}

		sess, created := s.service.Sessions().GetOrCreate(id)
		if created {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := WithRequestMetadata(r.Context(), r)
		ctx = core.ContextWithSession(ctx, sess)
		ctx = logging.ContextWithSessionID(ctx, sess.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// session returns the request's session. sessionMiddleware guarantees one.
func session(r *http.Request) *core.Session {
	sess, ok := core.SessionFromContext(r.Context())
	if !ok {
		panic("web: request without session")
	}
	return sess
}
