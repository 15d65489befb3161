package middleware

import (
	"context"
	"net/http"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/logging"
)

// Headers set by the gateway in front of the service.
const (
	UserIDHeader   = "X-User-ID"
	UserRoleHeader = "X-User-Role"
)

// ActorTokenVerifier turns a gateway-signed bearer token into an actor.
type ActorTokenVerifier interface {
	Verify(token string) (domain.Actor, error)
}

// Actor stores the caller asserted by the gateway in the request context,
// where audit records and listings pick it up. Access control itself is
// enforced upstream. Only "admin" is honoured as an elevated role.
func Actor(next http.Handler) http.Handler {
	return NewActorMiddleware(nil)(next)
}

// NewActorMiddleware returns the actor middleware. With a verifier the
// identity headers are ignored and the caller comes from the bearer token;
// a token that fails verification is rejected with 401.
func NewActorMiddleware(verifier ActorTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if requestID := chimiddleware.GetReqID(ctx); requestID != "" {
				ctx = context.WithValue(ctx, logging.RequestIDKey, requestID)
			}

			var (
				actor domain.Actor
				found bool
			)
			if verifier != nil {
				if token, ok := bearerToken(r); ok {
					verified, err := verifier.Verify(token)
					if err != nil {
						writeJSONError(w, http.StatusUnauthorized, "invalid actor token")
						return
					}
					actor, found = verified, true
				}
			} else {
				actor, found = actorFromHeaders(r)
			}

			if found {
				ctx = domain.ContextWithActor(ctx, actor)
				ctx = context.WithValue(ctx, logging.UserIDKey, actor.ID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromHeaders(r *http.Request) (domain.Actor, bool) {
	userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
	if userID == "" {
		return domain.Actor{}, false
	}

	role := domain.RoleUser
	if strings.EqualFold(strings.TrimSpace(r.Header.Get(UserRoleHeader)), string(domain.RoleAdmin)) {
		role = domain.RoleAdmin
	}
	return domain.Actor{ID: userID, Role: role}, true
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
