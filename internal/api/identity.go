package api

import (
	"context"
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/gts-commerce/cart-service/internal/api/respond"
	"github.com/gts-commerce/cart-service/internal/model"
)

type contextKey string

const identityKey contextKey = "cart-identity"

var numericID = regexp.MustCompile(`^\d+$`)

// IdentityMiddleware resolves the caller's identity from X-User-Id /
// X-Guest-Id headers (query parameters as fallback), validates the formats,
// and rejects requests carrying neither. Upstream auth is expected to have
// verified the user ID's authenticity; only its shape is checked here.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := headerOrQuery(r, "X-User-Id", "userId")
		guestID := headerOrQuery(r, "X-Guest-Id", "guestId")

		if userID == "" && guestID == "" {
			respond.WriteBadRequest(w, "Request requires X-Guest-Id or authentication.")
			return
		}
		if guestID != "" {
			if _, err := uuid.Parse(guestID); err != nil {
				respond.WriteBadRequest(w, "Invalid guest ID format.")
				return
			}
		}
		if userID != "" && !numericID.MatchString(userID) {
			if _, err := uuid.Parse(userID); err != nil {
				respond.WriteBadRequest(w, "Invalid user ID format.")
				return
			}
		}

		id := model.Identity{UserID: userID, GuestID: guestID}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// IdentityFromContext returns the identity attached by IdentityMiddleware.
func IdentityFromContext(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok
}

func headerOrQuery(r *http.Request, header, query string) string {
	if v := r.Header.Get(header); v != "" {
		return v
	}
	return r.URL.Query().Get(query)
}
