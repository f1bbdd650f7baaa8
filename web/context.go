package web

import (
	"context"
	"net/http"

	"github.com/facturo/facturo/domain/planlimit"
)

// Identity header names, set by the fronting identity provider.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserPlan = "X-User-Plan"
)

type ctxKey string

const identityKey ctxKey = "identity"

// Identity is the caller as asserted by the identity provider.
type Identity struct {
	UserID string
	Plan   planlimit.Plan
}

// RequireIdentity rejects requests without an identity header. The plan
// header is carried as given; resolution against the stored business
// plan happens per request.
func (h *Handler) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(HeaderUserID)
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing identity"})
			return
		}

		plan := planlimit.Plan(r.Header.Get(HeaderUserPlan))
		ctx := withIdentity(r.Context(), Identity{UserID: userID, Plan: plan})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerPlan resolves the plan the gate should enforce: the identity
// provider's claim when it names a known plan, otherwise the plan
// stored on the business row, otherwise free.
func (h *Handler) callerPlan(r *http.Request, businessPlan string) planlimit.Plan {
	if id := getIdentity(r.Context()); planlimit.Known(id.Plan) {
		return id.Plan
	}
	if p := planlimit.Plan(businessPlan); planlimit.Known(p) {
		return p
	}
	return planlimit.Free
}

// withIdentity adds the caller identity to the context.
func withIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// getIdentity retrieves the caller identity from context.
func getIdentity(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}
