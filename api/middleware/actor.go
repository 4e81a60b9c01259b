package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mgaraycochea/tradeflow-backend/api/responses"
	pkgerrors "github.com/mgaraycochea/tradeflow-backend/pkg/errors"
	"github.com/mgaraycochea/tradeflow-backend/pkg/logger"
)

const (
	userIDHeader = "X-User-Id"
	orgIDHeader  = "X-Org-Id"
	roleHeader   = "X-Actor-Role"
)

// Actor reads the identity headers stamped by the authenticating gateway and
// places them into the request context. Requests without a valid user and
// organization are turned away before reaching any handler.
func Actor(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(userIDHeader))
			if userID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing"))
				return
			}
			if _, err := uuid.Parse(userID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user identity"))
				return
			}

			orgID := strings.TrimSpace(r.Header.Get(orgIDHeader))
			if orgID == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "organization context missing"))
				return
			}
			if _, err := uuid.Parse(orgID); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "invalid organization context"))
				return
			}

			ctx := WithUserID(r.Context(), userID)
			ctx = WithOrgID(ctx, orgID)
			if role := strings.TrimSpace(r.Header.Get(roleHeader)); role != "" {
				ctx = WithRole(ctx, role)
			}

			if logg != nil {
				ctx = logg.WithUserID(ctx, userID)
				ctx = logg.WithOrgID(ctx, orgID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
