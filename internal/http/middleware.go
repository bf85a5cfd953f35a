package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hanynan8/LapTech-sub002/internal/cart"
)

type identityCtxKey struct{}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

// Identity resolves the request's cart identity: a valid session JWT
// yields the authenticated email, otherwise an X-Cart-Session token
// yields an anonymous local-cart identity. Session issuance happens
// elsewhere; this only verifies.
func Identity(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if email, ok := emailFromToken(r, jwtSecret); ok {
				ctx := context.WithValue(r.Context(), identityCtxKey{}, cart.Identity{Email: email})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			if token := r.Header.Get("X-Cart-Session"); token != "" {
				ctx := context.WithValue(r.Context(), identityCtxKey{}, cart.Identity{SessionToken: token})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func emailFromToken(r *http.Request, secret string) (string, bool) {
	if secret == "" {
		return "", false
	}

	auth := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(auth, "Bearer ")
	if !found || raw == "" {
		return "", false
	}

	var claims sessionClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}

func identityFrom(r *http.Request) (cart.Identity, bool) {
	id, ok := r.Context().Value(identityCtxKey{}).(cart.Identity)
	return id, ok
}
