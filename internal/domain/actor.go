package domain

import "context"

// Role of the caller as asserted by the upstream gateway.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleSystem Role = "system"
)

// Actor identifies who initiated an operation. It is used for audit
// attribution only; the gateway in front of this service enforces access.
type Actor struct {
	ID   string
	Role Role
}

// SystemActor is used by background workers.
var SystemActor = Actor{ID: "system", Role: RoleSystem}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSystem
}

type actorCtxKey struct{}

// ContextWithActor stores the actor in ctx.
func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, a)
}

// ActorFromContext returns the actor stored in ctx, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorCtxKey{}).(Actor)
	return a, ok
}
