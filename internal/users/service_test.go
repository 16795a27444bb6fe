package users

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/internal/authz"
	"github.com/craftshoplabs/craftshop-backend/internal/identity"
	"github.com/craftshoplabs/craftshop-backend/internal/ownership"
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/logger"
)

type fakeUserStore struct {
	createFn        func(ctx context.Context, user *models.User) (*models.User, error)
	findByIDFn      func(ctx context.Context, id uuid.UUID) (*models.User, error)
	findByEmailFn   func(ctx context.Context, email string) (*models.User, error)
	listInvitedByFn func(ctx context.Context, ownerID uuid.UUID) ([]models.User, error)
	updateGuardedFn func(ctx context.Context, user *models.User, actorID uuid.UUID) (bool, error)
	deleteFn        func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return f.createFn(ctx, user)
}

func (f *fakeUserStore) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.findByEmailFn == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return f.findByEmailFn(ctx, email)
}

func (f *fakeUserStore) ListInvitedBy(ctx context.Context, ownerID uuid.UUID) ([]models.User, error) {
	return f.listInvitedByFn(ctx, ownerID)
}

func (f *fakeUserStore) UpdateGuarded(ctx context.Context, user *models.User, actorID uuid.UUID) (bool, error) {
	return f.updateGuardedFn(ctx, user, actorID)
}

func (f *fakeUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if f.deleteFn == nil {
		return nil
	}
	return f.deleteFn(ctx, id)
}

type fakeDirectory struct {
	createAccountFn    func(ctx context.Context, input identity.CreateAccountInput) (*identity.Account, string, error)
	deleteAccountFn    func(ctx context.Context, username string) error
	updateAttributesFn func(ctx context.Context, username string, attrs identity.Attributes) error
}

func (f *fakeDirectory) CreateAccount(ctx context.Context, input identity.CreateAccountInput) (*identity.Account, string, error) {
	if f.createAccountFn == nil {
		return &identity.Account{ID: uuid.New(), SubjectID: input.SubjectID, Username: input.Username, Enabled: true}, "temp-pass", nil
	}
	return f.createAccountFn(ctx, input)
}

func (f *fakeDirectory) DeleteAccount(ctx context.Context, username string) error {
	if f.deleteAccountFn == nil {
		return nil
	}
	return f.deleteAccountFn(ctx, username)
}

func (f *fakeDirectory) UpdateAttributes(ctx context.Context, username string, attrs identity.Attributes) error {
	if f.updateAttributesFn == nil {
		return nil
	}
	return f.updateAttributesFn(ctx, username, attrs)
}

type fakeFanout struct {
	addedFn   func(ctx context.Context, inviterID, newUserID uuid.UUID, scopes []enums.PermissionScope) (*ownership.Report, error)
	removedFn func(ctx context.Context, userID uuid.UUID, scopes []enums.PermissionScope) (*ownership.Report, error)
}

func (f *fakeFanout) CollaboratorAdded(ctx context.Context, inviterID, newUserID uuid.UUID, scopes []enums.PermissionScope) (*ownership.Report, error) {
	if f.addedFn == nil {
		return &ownership.Report{}, nil
	}
	return f.addedFn(ctx, inviterID, newUserID, scopes)
}

func (f *fakeFanout) CollaboratorRemoved(ctx context.Context, userID uuid.UUID, scopes []enums.PermissionScope) (*ownership.Report, error) {
	if f.removedFn == nil {
		return &ownership.Report{}, nil
	}
	return f.removedFn(ctx, userID, scopes)
}

type fakeNotifier struct {
	pushes []string
}

func (f *fakeNotifier) Push(ctx context.Context, connectionID *string, action string) {
	if connectionID == nil {
		return
	}
	f.pushes = append(f.pushes, *connectionID+":"+action)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "users-test",
		Level:       zerolog.Disabled,
		Output:      io.Discard,
	})
}

type serviceDeps struct {
	store    *fakeUserStore
	identity *fakeDirectory
	fanout   *fakeFanout
	notifier *fakeNotifier
}

func newTestService(t *testing.T, deps serviceDeps) Service {
	t.Helper()
	if deps.store == nil {
		deps.store = &fakeUserStore{}
	}
	if deps.identity == nil {
		deps.identity = &fakeDirectory{}
	}
	if deps.fanout == nil {
		deps.fanout = &fakeFanout{}
	}
	if deps.notifier == nil {
		deps.notifier = &fakeNotifier{}
	}
	svc, err := NewService(ServiceParams{
		Store:    deps.store,
		Identity: deps.identity,
		Fanout:   deps.fanout,
		Notifier: deps.notifier,
		Logger:   testLogger(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func storeWithInviter(inviter *models.User) *fakeUserStore {
	return &fakeUserStore{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			if inviter != nil && id == inviter.ID {
				return inviter, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
}

func TestCreateUserInviteFlow(t *testing.T) {
	familyID := uuid.New()
	inviter := &models.User{ID: uuid.New(), FamilyID: &familyID}
	scopes := []enums.PermissionScope{enums.ScopeProductRead, enums.ScopeCategoryRead}

	var (
		accountSubject uuid.UUID
		inserted       *models.User
		fanoutPivot    uuid.UUID
		fanoutScopes   []enums.PermissionScope
	)
	store := storeWithInviter(inviter)
	store.createFn = func(ctx context.Context, user *models.User) (*models.User, error) {
		inserted = user
		return user, nil
	}
	deps := serviceDeps{
		store: store,
		identity: &fakeDirectory{
			createAccountFn: func(ctx context.Context, input identity.CreateAccountInput) (*identity.Account, string, error) {
				accountSubject = input.SubjectID
				return &identity.Account{SubjectID: input.SubjectID, Username: input.Username, Enabled: true}, "one-time", nil
			},
		},
		fanout: &fakeFanout{
			addedFn: func(ctx context.Context, inviterID, newUserID uuid.UUID, gotScopes []enums.PermissionScope) (*ownership.Report, error) {
				fanoutPivot = inviterID
				fanoutScopes = gotScopes
				return &ownership.Report{Succeeded: 3}, nil
			},
		},
	}
	svc := newTestService(t, deps)

	result, err := svc.CreateUser(context.Background(), authz.Principal{ID: inviter.ID}, CreateUserInput{
		Name:   "New Collaborator",
		Email:  "Invitee@Example.com",
		Role:   "staff",
		Scopes: scopes,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if result.TempPassword != "one-time" {
		t.Fatalf("temp password not returned: %q", result.TempPassword)
	}
	if inserted.Email != "invitee@example.com" {
		t.Fatalf("email not normalized: %q", inserted.Email)
	}
	if accountSubject != inserted.ID {
		t.Fatalf("identity subject %s does not match row %s", accountSubject, inserted.ID)
	}
	if len(inserted.OwnerIDs) != 1 || inserted.OwnerIDs[0] != inviter.ID {
		t.Fatalf("owner set must be exactly the inviter, got %v", inserted.OwnerIDs)
	}
	if inserted.FamilyID == nil || *inserted.FamilyID != familyID {
		t.Fatalf("family not inherited: %v", inserted.FamilyID)
	}
	if inserted.Status != enums.UserStatusPending {
		t.Fatalf("new users start pending, got %s", inserted.Status)
	}
	if fanoutPivot != inviter.ID || len(fanoutScopes) != 2 {
		t.Fatalf("fan-out not invoked with inviter/scopes: %s %v", fanoutPivot, fanoutScopes)
	}
	if result.Report.Succeeded != 3 {
		t.Fatalf("report not surfaced: %+v", result.Report)
	}
}

func TestCreateUserDuplicateEmailStopsBeforeDirectory(t *testing.T) {
	inviter := &models.User{ID: uuid.New()}
	store := storeWithInviter(inviter)
	store.findByEmailFn = func(ctx context.Context, email string) (*models.User, error) {
		return &models.User{ID: uuid.New(), Email: email}, nil
	}
	deps := serviceDeps{
		store: store,
		identity: &fakeDirectory{
			createAccountFn: func(ctx context.Context, input identity.CreateAccountInput) (*identity.Account, string, error) {
				t.Fatal("directory must not be reached for duplicate emails")
				return nil, "", nil
			},
		},
	}
	svc := newTestService(t, deps)

	_, err := svc.CreateUser(context.Background(), authz.Principal{ID: inviter.ID}, CreateUserInput{
		Name:  "Dup",
		Email: "taken@example.com",
		Role:  "staff",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateUserRollsBackAccountOnInsertFailure(t *testing.T) {
	inviter := &models.User{ID: uuid.New()}
	store := storeWithInviter(inviter)
	store.createFn = func(ctx context.Context, user *models.User) (*models.User, error) {
		return nil, errors.New("insert failed")
	}

	var deletedAccount string
	deps := serviceDeps{
		store: store,
		identity: &fakeDirectory{
			deleteAccountFn: func(ctx context.Context, username string) error {
				deletedAccount = username
				return nil
			},
		},
	}
	svc := newTestService(t, deps)

	_, err := svc.CreateUser(context.Background(), authz.Principal{ID: inviter.ID}, CreateUserInput{
		Name:  "Rollback",
		Email: "rollback@example.com",
		Role:  "staff",
	})
	if err == nil {
		t.Fatal("expected insert failure to propagate")
	}
	if deletedAccount != "rollback@example.com" {
		t.Fatalf("identity account not rolled back, got %q", deletedAccount)
	}
}

func TestCreateUserSurfacesPartialFanout(t *testing.T) {
	inviter := &models.User{ID: uuid.New()}
	store := storeWithInviter(inviter)
	store.createFn = func(ctx context.Context, user *models.User) (*models.User, error) {
		return user, nil
	}
	partialErr := pkgerrors.New(pkgerrors.CodePartial, "ownership fan-out completed partially")
	deps := serviceDeps{
		store: store,
		fanout: &fakeFanout{
			addedFn: func(ctx context.Context, inviterID, newUserID uuid.UUID, scopes []enums.PermissionScope) (*ownership.Report, error) {
				return &ownership.Report{
					Succeeded: 1,
					Failed:    []ownership.MemberFailure{{Entity: ownership.EntityProducts, RowID: uuid.New()}},
				}, partialErr
			},
		},
	}
	svc := newTestService(t, deps)

	result, err := svc.CreateUser(context.Background(), authz.Principal{ID: inviter.ID}, CreateUserInput{
		Name:   "Partial",
		Email:  "partial@example.com",
		Role:   "staff",
		Scopes: []enums.PermissionScope{enums.ScopeProductRead},
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePartial {
		t.Fatalf("expected partial error, got %v", err)
	}
	if result == nil || result.User == nil {
		t.Fatal("the created user must ride along with the partial report")
	}
	if !result.Report.Partial() {
		t.Fatalf("expected partial report, got %+v", result.Report)
	}
}

func TestGetUserSelfAndOwnerOnly(t *testing.T) {
	owner := uuid.New()
	user := &models.User{ID: uuid.New(), OwnerID: owner}
	store := &fakeUserStore{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			if id == user.ID {
				return user, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, serviceDeps{store: store})

	if _, err := svc.GetUser(context.Background(), authz.Principal{ID: user.ID}, user.ID); err != nil {
		t.Fatalf("self read: %v", err)
	}
	if _, err := svc.GetUser(context.Background(), authz.Principal{ID: owner}, user.ID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	_, err := svc.GetUser(context.Background(), authz.Principal{ID: uuid.New()}, user.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("stranger read must be masked, got %v", err)
	}
}

func TestPatchUserSyncsDirectoryBeforeRow(t *testing.T) {
	user := &models.User{ID: uuid.New(), OwnerID: uuid.New(), Email: "patch@example.com", Name: "Before"}

	var order []string
	store := &fakeUserStore{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			copied := *user
			return &copied, nil
		},
		updateGuardedFn: func(ctx context.Context, u *models.User, actorID uuid.UUID) (bool, error) {
			order = append(order, "row")
			return true, nil
		},
	}
	deps := serviceDeps{
		store: store,
		identity: &fakeDirectory{
			updateAttributesFn: func(ctx context.Context, username string, attrs identity.Attributes) error {
				order = append(order, "directory")
				if username != user.Email {
					t.Fatalf("attributes synced for wrong account: %q", username)
				}
				if attrs.Name == nil || *attrs.Name != "After" {
					t.Fatalf("name attribute missing: %+v", attrs)
				}
				return nil
			},
		},
	}
	svc := newTestService(t, deps)

	name := "After"
	updated, err := svc.PatchUser(context.Background(), authz.Principal{ID: user.ID}, user.ID, PatchUserInput{Name: &name})
	if err != nil {
		t.Fatalf("PatchUser: %v", err)
	}
	if updated.Name != "After" {
		t.Fatalf("name not applied: %q", updated.Name)
	}
	if len(order) != 2 || order[0] != "directory" || order[1] != "row" {
		t.Fatalf("directory must be synced before the row, got %v", order)
	}
}

func TestPatchUserGuardFailureIsForbidden(t *testing.T) {
	user := &models.User{ID: uuid.New(), OwnerID: uuid.New(), Email: "guard@example.com"}
	store := &fakeUserStore{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			copied := *user
			return &copied, nil
		},
		updateGuardedFn: func(ctx context.Context, u *models.User, actorID uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	svc := newTestService(t, serviceDeps{store: store})

	role := "manager"
	_, err := svc.PatchUser(context.Background(), authz.Principal{ID: user.ID}, user.ID, PatchUserInput{Role: &role})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestDeleteUserRemovesEverythingAndNotifies(t *testing.T) {
	owner := uuid.New()
	conn := "conn-42"
	user := &models.User{
		ID:           uuid.New(),
		OwnerID:      owner,
		Email:        "leaver@example.com",
		Permissions:  []string{string(enums.ScopeProductRead)},
		ConnectionID: &conn,
	}

	var (
		removedPivot   uuid.UUID
		deletedRow     uuid.UUID
		deletedAccount string
	)
	notifier := &fakeNotifier{}
	store := &fakeUserStore{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return user, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			deletedRow = id
			return nil
		},
	}
	deps := serviceDeps{
		store:    store,
		notifier: notifier,
		fanout: &fakeFanout{
			removedFn: func(ctx context.Context, userID uuid.UUID, scopes []enums.PermissionScope) (*ownership.Report, error) {
				removedPivot = userID
				if len(scopes) != 1 || scopes[0] != enums.ScopeProductRead {
					t.Fatalf("removal must use the user's own grants, got %v", scopes)
				}
				return &ownership.Report{Succeeded: 2}, nil
			},
		},
		identity: &fakeDirectory{
			deleteAccountFn: func(ctx context.Context, username string) error {
				deletedAccount = username
				return nil
			},
		},
	}
	svc := newTestService(t, deps)

	result, err := svc.DeleteUser(context.Background(), authz.Principal{ID: owner}, user.ID)
	if err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if removedPivot != user.ID {
		t.Fatalf("fan-out removal pivot mismatch: %s", removedPivot)
	}
	if deletedRow != user.ID {
		t.Fatalf("row not deleted: %s", deletedRow)
	}
	if deletedAccount != user.Email {
		t.Fatalf("identity account not deleted: %q", deletedAccount)
	}
	if len(notifier.pushes) != 1 || notifier.pushes[0] != "conn-42:clearLocalStorage" {
		t.Fatalf("expected clearLocalStorage push, got %v", notifier.pushes)
	}
	if result.Report.Succeeded != 2 {
		t.Fatalf("report not surfaced: %+v", result.Report)
	}
}

func TestDeleteUserAbortsOnFanoutFailure(t *testing.T) {
	owner := uuid.New()
	user := &models.User{ID: uuid.New(), OwnerID: owner, Email: "stuck@example.com"}
	store := &fakeUserStore{
		findByIDFn: func(ctx context.Context, id uuid.UUID) (*models.User, error) {
			return user, nil
		},
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			t.Fatal("row must survive a failed membership removal")
			return nil
		},
	}
	partialErr := pkgerrors.New(pkgerrors.CodePartial, "ownership fan-out completed partially")
	deps := serviceDeps{
		store: store,
		fanout: &fakeFanout{
			removedFn: func(ctx context.Context, userID uuid.UUID, scopes []enums.PermissionScope) (*ownership.Report, error) {
				return &ownership.Report{Succeeded: 1, Failed: []ownership.MemberFailure{{Entity: ownership.EntityCategories, RowID: uuid.New()}}}, partialErr
			},
		},
	}
	svc := newTestService(t, deps)

	result, err := svc.DeleteUser(context.Background(), authz.Principal{ID: owner}, user.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodePartial {
		t.Fatalf("expected partial error, got %v", err)
	}
	if result == nil || !result.Report.Partial() {
		t.Fatalf("expected partial report, got %+v", result)
	}
}
