package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iho/gowallet/internal/domain"
)

var (
	ErrInvalidToken = errors.New("invalid actor token")
	ErrExpiredToken = errors.New("actor token has expired")
)

// Claims is what the gateway asserts about the caller. Subject is the user id.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// ActorVerifier checks HS256 tokens minted by the gateway with a shared secret.
type ActorVerifier struct {
	secretKey []byte
	issuer    string
	now       func() time.Time
}

// NewActorVerifier creates a verifier. An empty issuer accepts any issuer.
func NewActorVerifier(secretKey, issuer string) *ActorVerifier {
	return &ActorVerifier{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		now:       time.Now,
	}
}

// Sign mints a token for actor valid for ttl.
func (v *ActorVerifier) Sign(actor domain.Actor, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		Role: actor.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			Issuer:    v.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secretKey)
}

// Verify verifies a token and returns the actor it names.
// Roles other than admin are downgraded to user.
func (v *ActorVerifier) Verify(tokenString string) (domain.Actor, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return v.secretKey, nil
		},
		opts...,
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Actor{}, ErrExpiredToken
		}
		return domain.Actor{}, ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return domain.Actor{}, ErrInvalidToken
	}

	role := domain.RoleUser
	if claims.Role == domain.RoleAdmin {
		role = domain.RoleAdmin
	}

	return domain.Actor{ID: claims.Subject, Role: role}, nil
}
