// Package handler frames the dispatch core as JSON-over-HTTP. It is
// deliberately thin: every rule lives in the service layer
// (internal/shift, internal/attendance, internal/timesheet,
// internal/audit); handlers only decode a request, call a service, and
// translate the result (or an *apierr.Error) back to a status code and
// body.
package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const actorIDKey contextKey = "actorID"

// ActorIDFromContext extracts the bearer token's subject claim, set by
// AuthMiddleware, as the acting user's id.
func ActorIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorIDKey).(uuid.UUID)
	return id, ok
}

// AuthMiddleware validates an HS256 JWT bearer token and resolves the
// acting user id from its subject claim. Token *issuance* is an external
// collaborator's job; this service only validates tokens someone else
// minted, with the same JWT_SECRET both sides share. A missing or
// invalid token is rejected outright — every dispatch route requires a
// caller identity, since the permission gates all key off the actor.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeError(w, errUnauthorized("missing bearer token"))
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !token.Valid || claims.Subject == "" {
				writeError(w, errUnauthorized("invalid bearer token"))
				return
			}

			actorID, err := uuid.Parse(claims.Subject)
			if err != nil {
				writeError(w, errUnauthorized("invalid bearer token subject"))
				return
			}

			ctx := context.WithValue(r.Context(), actorIDKey, actorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
