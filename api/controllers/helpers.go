package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/craftshoplabs/craftshop-backend/api/middleware"
	"github.com/craftshoplabs/craftshop-backend/api/responses"
	"github.com/craftshoplabs/craftshop-backend/internal/authz"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

// requirePrincipal pulls the authenticated caller out of the request context.
// A missing principal means the route was mounted outside the auth middleware.
func requirePrincipal(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (authz.Principal, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
		return authz.Principal{}, false
	}
	return principal, true
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid id").
			WithDetails(map[string]any{"param": name})
	}
	return id, nil
}
