package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/campusgive/campusgive/internal/platform/httpx"
	"github.com/campusgive/campusgive/internal/shared"
)

const bearerScheme = "bearer "

// SessionCookie carries the bearer token for browser page navigation.
const SessionCookie = "campusgive_token"

// TokenVerifier resolves a bearer token to the user ID it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Guard inspects a request and returns either the context the request
// should continue with or an error that stops it.
type Guard func(r *http.Request) (context.Context, error)

// FailureFunc writes the rejection for a failed guard.
type FailureFunc func(w http.ResponseWriter, r *http.Request, err error)

// Pipeline runs guards in order, each seeing the context produced by the
// previous one.
type Pipeline []Guard

// Middleware adapts the pipeline to chi/net-http middleware. The first
// failing guard short-circuits the request and onFail writes the response.
func (p Pipeline) Middleware(onFail FailureFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, guard := range p {
				ctx, err := guard(r)
				if err != nil {
					onFail(w, r, err)
					return
				}
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionGuard authenticates requests carrying a bearer token.
type SessionGuard struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewSessionGuard constructs a SessionGuard.
func NewSessionGuard(verifier TokenVerifier, logger *slog.Logger) *SessionGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionGuard{verifier: verifier, logger: logger}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if strings.EqualFold(header, strings.TrimSpace(bearerScheme)) {
		return ""
	}
	if len(header) >= len(bearerScheme) && strings.EqualFold(header[:len(bearerScheme)], bearerScheme) {
		header = strings.TrimSpace(header[len(bearerScheme):])
	}
	return header
}

// Authenticate is the Guard that verifies the bearer token and binds the
// user ID into the request context.
func (g *SessionGuard) Authenticate(r *http.Request) (context.Context, error) {
	return g.verify(r, BearerToken(r.Header.Get("Authorization")))
}

// AuthenticatePage is Authenticate with a fallback to the session cookie,
// which browsers send on plain navigation.
func (g *SessionGuard) AuthenticatePage(r *http.Request) (context.Context, error) {
	raw := BearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			raw = c.Value
		}
	}
	return g.verify(r, raw)
}

func (g *SessionGuard) verify(r *http.Request, raw string) (context.Context, error) {
	if raw == "" {
		return nil, shared.ErrMissingCredential
	}
	userID, err := g.verifier.Verify(raw)
	if err != nil {
		g.logger.Debug("token rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidCredential, err)
	}
	return shared.ContextWithUserID(r.Context(), userID), nil
}

// RequireAPI rejects unauthenticated API calls with a JSON 401. Extra guards
// run after authentication.
func (g *SessionGuard) RequireAPI(extra ...Guard) func(http.Handler) http.Handler {
	return append(Pipeline{g.Authenticate}, extra...).Middleware(RejectJSON)
}

// RequirePage redirects unauthenticated page loads to loginPath. The session
// cookie is accepted here only; API routes stay header-only.
func (g *SessionGuard) RequirePage(loginPath string, extra ...Guard) func(http.Handler) http.Handler {
	return append(Pipeline{g.AuthenticatePage}, extra...).Middleware(RedirectTo(loginPath))
}

// RejectJSON answers authentication failures with 401 and any other guard
// failure through the usual error mapping.
func RejectJSON(w http.ResponseWriter, _ *http.Request, err error) {
	switch {
	case errors.Is(err, shared.ErrMissingCredential):
		httpx.Error(w, http.StatusUnauthorized, "No token, authorization denied")
	case errors.Is(err, shared.ErrInvalidCredential):
		httpx.Error(w, http.StatusUnauthorized, "Token is not valid")
	default:
		httpx.RespondError(w, err)
	}
}

// RedirectTo returns a FailureFunc that sends the caller to location.
func RedirectTo(location string) FailureFunc {
	return func(w http.ResponseWriter, r *http.Request, _ error) {
		http.Redirect(w, r, location, http.StatusFound)
	}
}

// CurrentUserID returns the authenticated user ID bound by the guard.
func CurrentUserID(r *http.Request) (string, bool) {
	return shared.UserIDFromContext(r.Context())
}
