package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/auth"
)

func TestActorVerifierSignAndVerify(t *testing.T) {
	t.Parallel()

	verifier := auth.NewActorVerifier("super-secret", "gateway")

	token, err := verifier.Sign(domain.Actor{ID: "ops-1", Role: domain.RoleAdmin}, time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	actor, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}

	if actor.ID != "ops-1" || actor.Role != domain.RoleAdmin {
		t.Fatalf("expected actor to match claims, got %+v", actor)
	}
}

func TestActorVerifierDowngradesUnknownRoles(t *testing.T) {
	t.Parallel()

	verifier := auth.NewActorVerifier("super-secret", "")

	token, err := verifier.Sign(domain.Actor{ID: "svc", Role: domain.RoleSystem}, time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	actor, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}
	if actor.Role != domain.RoleUser {
		t.Fatalf("expected role to be downgraded, got %s", actor.Role)
	}
}

func TestActorVerifierVerifyErrors(t *testing.T) {
	t.Parallel()

	verifier := auth.NewActorVerifier("super-secret", "gateway")
	actor := domain.Actor{ID: "alice", Role: domain.RoleUser}

	expired, err := verifier.Sign(actor, -time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	foreign, err := auth.NewActorVerifier("other-secret", "gateway").Sign(actor, time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	wrongIssuer, err := auth.NewActorVerifier("super-secret", "someone-else").Sign(actor, time.Minute)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		Role:             domain.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", Issuer: "gateway"},
	}).SignedString([]byte("super-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			Issuer:    "gateway",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"expired", expired, auth.ErrExpiredToken},
		{"foreign secret", foreign, auth.ErrInvalidToken},
		{"wrong issuer", wrongIssuer, auth.ErrInvalidToken},
		{"no expiry", noExpiry, auth.ErrInvalidToken},
		{"unsigned", noneAlg, auth.ErrInvalidToken},
		{"garbage", "not-a-token", auth.ErrInvalidToken},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := verifier.Verify(tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
