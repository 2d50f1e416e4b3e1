package web

import (
	"context"
	"net/http"
)

type ownerKey struct{}

// anonymousOwner owns every operation when authentication is disabled.
const anonymousOwner = "anonymous"

func (handler *RouteHandler) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if !handler.UseAuth {
		return func(w http.ResponseWriter, r *http.Request) {
			next(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, anonymousOwner)))
		}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		username, ok := authenticatedUser(r, handler.SecretKey)
		if !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, username)))
	}
}

func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
