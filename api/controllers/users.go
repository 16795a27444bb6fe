package controllers

import (
	"net/http"
	"strings"

	"github.com/craftshoplabs/craftshop-backend/api/responses"
	"github.com/craftshoplabs/craftshop-backend/api/validators"
	usersvc "github.com/craftshoplabs/craftshop-backend/internal/users"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

// ListUsers returns the collaborators the caller invited.
func ListUsers(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		rows, err := svc.ListUsers(r.Context(), principal)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, usersvc.FromModels(rows))
	}
}

// GetUser returns one user visible to the caller.
func GetUser(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		id, err := parseIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.GetUser(r.Context(), principal, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, usersvc.FromModel(user))
	}
}

type inviteUserRequest struct {
	Name   string   `json:"name" validate:"required"`
	Email  string   `json:"email" validate:"required,email"`
	Phone  string   `json:"phone,omitempty"`
	Role   string   `json:"role" validate:"required"`
	Scopes []string `json:"scopes" validate:"required,min=1,dive,required"`
}

func (req inviteUserRequest) toInput() (usersvc.CreateUserInput, error) {
	scopes, err := parseScopes(req.Scopes)
	if err != nil {
		return usersvc.CreateUserInput{}, err
	}
	return usersvc.CreateUserInput{
		Name:   strings.TrimSpace(req.Name),
		Email:  strings.TrimSpace(req.Email),
		Phone:  strings.TrimSpace(req.Phone),
		Role:   strings.TrimSpace(req.Role),
		Scopes: scopes,
	}, nil
}

type inviteUserResponse struct {
	User         *usersvc.UserDTO         `json:"user"`
	TempPassword string                   `json:"temp_password"`
	Report       *usersvc.FanoutReportDTO `json:"fanout_report,omitempty"`
}

// CreateUser invites a collaborator. A partially failed visibility fan-out
// still returns the created user together with the failure report.
func CreateUser(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		var payload inviteUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateUser(r.Context(), principal, input)
		if err != nil && !isPartialWithResult(err, result != nil) {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, inviteUserResponse{
			User:         usersvc.FromModel(result.User),
			TempPassword: result.TempPassword,
			Report:       usersvc.ReportFromEngine(result.Report),
		})
	}
}

type patchUserRequest struct {
	Name   *string  `json:"name,omitempty"`
	Phone  *string  `json:"phone,omitempty"`
	Role   *string  `json:"role,omitempty"`
	Scopes []string `json:"scopes,omitempty"`
	Status *string  `json:"status,omitempty"`
}

func (req patchUserRequest) toInput() (usersvc.PatchUserInput, error) {
	input := usersvc.PatchUserInput{
		Name:  req.Name,
		Phone: req.Phone,
		Role:  req.Role,
	}
	if req.Scopes != nil {
		scopes, err := parseScopes(req.Scopes)
		if err != nil {
			return usersvc.PatchUserInput{}, err
		}
		input.Scopes = scopes
	}
	if req.Status != nil {
		status, err := enums.ParseUserStatus(*req.Status)
		if err != nil {
			return usersvc.PatchUserInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
		}
		input.Status = &status
	}
	return input, nil
}

// PatchUser applies a partial update to a user the caller may manage.
func PatchUser(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		id, err := parseIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload patchUserRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.PatchUser(r.Context(), principal, id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, usersvc.FromModel(user))
	}
}

// DeleteUser removes a collaborator. When the removal fan-out only partially
// completes the row is kept and the failure report is surfaced, so the
// caller can retry.
func DeleteUser(svc usersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal, ok := requirePrincipal(w, r, logg)
		if !ok {
			return
		}

		id, err := parseIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.DeleteUser(r.Context(), principal, id)
		if err != nil {
			typed := pkgerrors.As(err)
			if typed != nil && typed.Code() == pkgerrors.CodePartial && result != nil {
				err = typed.WithDetails(map[string]any{"fanout_report": usersvc.ReportFromEngine(result.Report)})
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := map[string]any{"status": "deleted"}
		if result != nil && result.Report != nil {
			payload["fanout_report"] = usersvc.ReportFromEngine(result.Report)
		}
		responses.WriteSuccess(w, payload)
	}
}

func isPartialWithResult(err error, hasResult bool) bool {
	typed := pkgerrors.As(err)
	return typed != nil && typed.Code() == pkgerrors.CodePartial && hasResult
}

func parseScopes(raw []string) ([]enums.PermissionScope, error) {
	scopes := make([]enums.PermissionScope, 0, len(raw))
	for _, value := range raw {
		scope, err := enums.ParsePermissionScope(value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope").
				WithDetails(map[string]any{"scope": value})
		}
		scopes = append(scopes, scope)
	}
	return scopes, nil
}
