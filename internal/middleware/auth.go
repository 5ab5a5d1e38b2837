package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/crestline/estatesite/internal/apierr"
	"github.com/crestline/estatesite/internal/auth"
	"github.com/crestline/estatesite/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

var (
	errMissingToken = apierr.New(apierr.Unauthenticated, "missing bearer token")
	errForbidden    = apierr.New(apierr.Forbidden, "insufficient permissions")
)

//go:generate mockgen -source=auth.go -destination=auth_mocks_test.go -package=middleware_test

type tokenAuthenticator interface {
	Authenticate(ctx context.Context, token string) (auth.Identity, error)
}

type AuthMiddlewareHandler struct {
	authenticator     tokenAuthenticator
	allowedPaths      map[string]bool
	protectedPrefixes []string
}

func NewAuthMiddlewareHandler(authenticator tokenAuthenticator) *AuthMiddlewareHandler {
	return &AuthMiddlewareHandler{
		authenticator: authenticator,
		allowedPaths: map[string]bool{
			"/api/admin/login": true,
		},
		protectedPrefixes: []string{
			"/api/admin/",
			"/api/uploads",
		},
	}
}

func (h *AuthMiddlewareHandler) pathIsProtected(path string) bool {
	if h.allowedPaths[path] {
		return false
	}
	for _, prefix := range h.protectedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// AuthCheck requires a valid bearer token on admin and upload routes and
// stores the caller identity in the request context.
func (h *AuthMiddlewareHandler) AuthCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || !h.pathIsProtected(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.auth")
			defer span.End()

			token, ok := BearerToken(r)
			if !ok {
				log.Tracef("[missing token] [auth middleware] unauthorized => %s", r.URL.Path)
				span.SetStatus(codes.Error, "missing-auth-token")
				apierr.Write(w, errMissingToken, false)
				return
			}

			identity, err := h.authenticator.Authenticate(ctx, token)
			if err != nil {
				log.Debugf("[invalid token] [auth middleware] unauthorized => %s: %s", r.URL.Path, err)
				span.SetStatus(codes.Error, "invalid-token")
				span.RecordError(err)
				if apierr.KindOf(err) != apierr.Unauthenticated {
					err = auth.ErrInvalidToken
				}
				apierr.Write(w, err, false)
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}

// RequireRole lets through only identities holding one of the given roles.
func RequireRole(roles ...auth.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := auth.IdentityFrom(r.Context())
			if !ok {
				apierr.Write(w, errMissingToken, false)
				return
			}
			if !slices.Contains(roles, identity.Role) {
				log.Warnf("account %d with role [%s] denied access to %s %s", identity.AccountID, identity.Role, r.Method, r.URL.Path)
				apierr.Write(w, errForbidden, false)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func BearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
