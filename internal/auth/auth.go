package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"shared-notes/internal/db"
)

var ErrUnauthenticated = errors.New("unauthenticated")
var ErrInvalidToken = errors.New("invalid token")
var ErrTokenExpired = errors.New("token expired")
var ErrInvalidCredential = errors.New("incorrect password")

// Access is the only capability a token can carry: possession of the shared
// password.
const Access = "shared_notes_user"

// TokenTTL is the absolute lifetime of an access token.
const TokenTTL = time.Hour

const issuer = "shared-notes"

// PasswordStore is the part of the settings store the gate needs. The stored
// hash never crosses this interface.
type PasswordStore interface {
	CheckPassword(ctx context.Context, password string) error
	SetPassword(ctx context.Context, password string) error
}

type Auth struct {
	store     PasswordStore
	jwtSecret []byte
	now       func() time.Time
}

type Claims struct {
	Access string `json:"access"`
	jwt.RegisteredClaims
}

func New(store PasswordStore, secret string) *Auth {
	return &Auth{
		store:     store,
		jwtSecret: []byte(secret),
		now:       time.Now,
	}
}

// Login exchanges the shared password for an access token.
func (a *Auth) Login(ctx context.Context, password string) (string, error) {
	err := a.store.CheckPassword(ctx, password)
	switch {
	case err == nil:
		return a.GenerateJWT()
	case errors.Is(err, db.ErrNotConfigured):
		return "", fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	case errors.Is(err, db.ErrPasswordMismatch):
		return "", ErrInvalidCredential
	default:
		return "", err
	}
}

// ChangePassword replaces the password after checking the current one. The
// caller must already hold a verified token.
func (a *Auth) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	err := a.store.CheckPassword(ctx, currentPassword)
	switch {
	case err == nil:
	case errors.Is(err, db.ErrNotConfigured):
		return err
	case errors.Is(err, db.ErrPasswordMismatch):
		return ErrInvalidCredential
	default:
		return err
	}
	return a.store.SetPassword(ctx, newPassword)
}

func (a *Auth) GenerateJWT() (string, error) {
	now := a.now()
	claims := &Claims{
		Access: Access,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.jwtSecret)
}

// ValidateJWT checks signature, expiry and the capability claim without
// touching the store.
func (a *Auth) ValidateJWT(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return a.jwtSecret, nil
	},
		jwt.WithTimeFunc(a.now),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrTokenExpired)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Access != Access {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type contextKey int

const claimsKey contextKey = 0

// Middleware rejects requests without a valid bearer token. Verification
// completes before the wrapped handler runs.
func (a *Auth) Middleware(onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r.Header.Get("Authorization"))
			if err != nil {
				onError(w, r, err)
				return
			}

			claims, err := a.ValidateJWT(tokenString)
			if err != nil {
				onError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", fmt.Errorf("%w: malformed authorization header", ErrInvalidToken)
	}
	return strings.TrimSpace(parts[1]), nil
}

// ClaimsFromContext returns the claims stored by Middleware, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok
}
