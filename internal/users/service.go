package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/internal/authz"
	"github.com/craftshoplabs/craftshop-backend/internal/identity"
	"github.com/craftshoplabs/craftshop-backend/internal/ownership"
	"github.com/craftshoplabs/craftshop-backend/pkg/db"
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

type userStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ListInvitedBy(ctx context.Context, ownerID uuid.UUID) ([]models.User, error)
	UpdateGuarded(ctx context.Context, user *models.User, actorID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type directory interface {
	CreateAccount(ctx context.Context, input identity.CreateAccountInput) (*identity.Account, string, error)
	DeleteAccount(ctx context.Context, username string) error
	UpdateAttributes(ctx context.Context, username string, attrs identity.Attributes) error
}

type fanoutEngine interface {
	CollaboratorAdded(ctx context.Context, inviterID, newUserID uuid.UUID, scopes []enums.PermissionScope) (*ownership.Report, error)
	CollaboratorRemoved(ctx context.Context, userID uuid.UUID, scopes []enums.PermissionScope) (*ownership.Report, error)
}

type realtimeNotifier interface {
	Push(ctx context.Context, connectionID *string, action string)
}

// CreateUserInput holds the fields needed to invite a collaborator.
type CreateUserInput struct {
	Name   string
	Email  string
	Phone  string
	Role   string
	Scopes []enums.PermissionScope
}

// PatchUserInput carries partial updates; nil fields stay untouched.
type PatchUserInput struct {
	Name   *string
	Phone  *string
	Role   *string
	Scopes []enums.PermissionScope
	Status *enums.UserStatus
}

// CreateUserResult is the invite outcome: the persisted row, the one-time
// password, and the visibility fan-out report.
type CreateUserResult struct {
	User         *models.User
	TempPassword string
	Report       *ownership.Report
}

// DeleteUserResult carries the removal fan-out report.
type DeleteUserResult struct {
	Report *ownership.Report
}

// Service exposes collaborator management.
type Service interface {
	ListUsers(ctx context.Context, principal authz.Principal) ([]models.User, error)
	GetUser(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, principal authz.Principal, input CreateUserInput) (*CreateUserResult, error)
	PatchUser(ctx context.Context, principal authz.Principal, id uuid.UUID, input PatchUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, principal authz.Principal, id uuid.UUID) (*DeleteUserResult, error)
}

type service struct {
	store    userStore
	identity directory
	fanout   fanoutEngine
	notifier realtimeNotifier
	logg     *logger.Logger
}

// ServiceParams bundles the dependencies required to build the users service.
type ServiceParams struct {
	Store    userStore
	Identity directory
	Fanout   fanoutEngine
	Notifier realtimeNotifier
	Logger   *logger.Logger
}

// NewService constructs the collaborator service.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("user store is required")
	}
	if params.Identity == nil {
		return nil, fmt.Errorf("identity provider is required")
	}
	if params.Fanout == nil {
		return nil, fmt.Errorf("fan-out engine is required")
	}
	if params.Notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		store:    params.Store,
		identity: params.Identity,
		fanout:   params.Fanout,
		notifier: params.Notifier,
		logg:     params.Logger,
	}, nil
}

func (s *service) ListUsers(ctx context.Context, principal authz.Principal) ([]models.User, error) {
	rows, err := s.store.ListInvitedBy(ctx, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing users")
	}
	return rows, nil
}

func (s *service) GetUser(ctx context.Context, principal authz.Principal, id uuid.UUID) (*models.User, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resource := authz.UserResource{ID: user.ID, OwnerID: user.OwnerID, FamilyID: user.FamilyID}
	if decision := authz.AuthorizeUser(principal, resource, authz.ActionRead); !decision.Allowed {
		return nil, authz.Denied(authz.ActionRead, decision)
	}
	return user, nil
}

func (s *service) CreateUser(ctx context.Context, principal authz.Principal, input CreateUserInput) (*CreateUserResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid email is required")
	}
	role := strings.TrimSpace(input.Role)
	if role == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role is required")
	}
	for _, scope := range input.Scopes {
		if !scope.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid permission scope %q", scope))
		}
	}

	inviter, err := s.loadInviter(ctx, principal.ID)
	if err != nil {
		return nil, err
	}

	// Uniqueness is checked before the identity account exists so a duplicate
	// invite never leaves an orphaned credential behind.
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
	} else if !isMissingRow(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking email uniqueness")
	}

	userID := uuid.New()
	account, tempPassword, err := s.identity.CreateAccount(ctx, identity.CreateAccountInput{
		SubjectID: userID,
		Username:  email,
		Email:     email,
		Phone:     input.Phone,
		Name:      name,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating identity account")
	}

	user := &models.User{
		ID:          userID,
		OwnerID:     inviter.ID,
		FamilyID:    inviter.FamilyID,
		OwnerIDs:    dbtypes.UUIDArray{inviter.ID},
		Name:        name,
		Role:        role,
		Permissions: scopeStrings(input.Scopes),
		Email:       email,
		Phone:       strings.TrimSpace(input.Phone),
		Status:      enums.UserStatusPending,
	}
	created, err := s.store.Create(ctx, user)
	if err != nil {
		// Roll the directory account back so the invite can be retried.
		if delErr := s.identity.DeleteAccount(ctx, account.Username); delErr != nil {
			s.logg.Error(s.logg.WithFields(ctx, map[string]any{"username": account.Username}),
				"orphaned identity account after failed insert", delErr)
		}
		// A concurrent invite can slip past the pre-check and hit the index.
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "email already in use")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating user")
	}

	result := &CreateUserResult{User: created, TempPassword: tempPassword}
	report, err := s.fanout.CollaboratorAdded(ctx, inviter.ID, created.ID, input.Scopes)
	result.Report = report
	if err != nil {
		// The invite itself succeeded; the partial report rides along.
		return result, err
	}
	return result, nil
}

func (s *service) PatchUser(ctx context.Context, principal authz.Principal, id uuid.UUID, input PatchUserInput) (*models.User, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resource := authz.UserResource{ID: user.ID, OwnerID: user.OwnerID, FamilyID: user.FamilyID}
	if decision := authz.AuthorizeUser(principal, resource, authz.ActionUpdate); !decision.Allowed {
		return nil, authz.Denied(authz.ActionUpdate, decision)
	}

	attrs := identity.Attributes{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		user.Name = name
		attrs.Name = &name
	}
	if input.Phone != nil {
		phone := strings.TrimSpace(*input.Phone)
		user.Phone = phone
		attrs.Phone = &phone
	}
	if input.Role != nil {
		role := strings.TrimSpace(*input.Role)
		if role == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "role cannot be empty")
		}
		user.Role = role
	}
	if input.Scopes != nil {
		for _, scope := range input.Scopes {
			if !scope.IsValid() {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid permission scope %q", scope))
			}
		}
		user.Permissions = scopeStrings(input.Scopes)
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid user status")
		}
		user.Status = *input.Status
	}

	// Directory attributes first so a failed sync never leaves the row ahead
	// of the account.
	if attrs.Name != nil || attrs.Phone != nil {
		if err := s.identity.UpdateAttributes(ctx, user.Email, attrs); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "syncing identity attributes")
		}
	}

	applied, err := s.store.UpdateGuarded(ctx, user, principal.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating user")
	}
	if !applied {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not permitted for this resource")
	}
	return user, nil
}

func (s *service) DeleteUser(ctx context.Context, principal authz.Principal, id uuid.UUID) (*DeleteUserResult, error) {
	user, err := s.loadUser(ctx, id)
	if err != nil {
		return nil, err
	}
	resource := authz.UserResource{ID: user.ID, OwnerID: user.OwnerID, FamilyID: user.FamilyID}
	if decision := authz.AuthorizeUser(principal, resource, authz.ActionDelete); !decision.Allowed {
		return nil, authz.Denied(authz.ActionDelete, decision)
	}

	report, err := s.fanout.CollaboratorRemoved(ctx, user.ID, user.Scopes())
	if err != nil {
		// Keep the row while memberships are in a half-removed state; the
		// caller retries with the report in hand.
		return &DeleteUserResult{Report: report}, err
	}

	s.notifier.Push(ctx, user.ConnectionID, "clearLocalStorage")

	if err := s.store.Delete(ctx, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting user")
	}
	if err := s.identity.DeleteAccount(ctx, user.Email); err != nil {
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String()}),
			"identity account removal failed after row delete", err)
	}
	return &DeleteUserResult{Report: report}, nil
}

func (s *service) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if isMissingRow(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading user")
	}
	return user, nil
}

func (s *service) loadInviter(ctx context.Context, id uuid.UUID) (*models.User, error) {
	inviter, err := s.store.FindByID(ctx, id)
	if err != nil {
		if isMissingRow(err) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "acting user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading acting user")
	}
	return inviter, nil
}

func isMissingRow(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func scopeStrings(scopes []enums.PermissionScope) pq.StringArray {
	out := make(pq.StringArray, 0, len(scopes))
	for _, scope := range scopes {
		out = append(out, string(scope))
	}
	return out
}
