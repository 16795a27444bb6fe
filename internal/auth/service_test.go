package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/internal/identity"
	pkgAuth "github.com/craftshoplabs/craftshop-backend/pkg/auth"
	"github.com/craftshoplabs/craftshop-backend/pkg/auth/session"
	"github.com/craftshoplabs/craftshop-backend/pkg/config"
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
)

type fakeUserRepo struct {
	findByEmailFn func(ctx context.Context, email string) (*models.User, error)
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.findByEmailFn(ctx, email)
}

type fakeVerifier struct {
	verifyFn func(ctx context.Context, username, password string) (*identity.Account, error)
}

func (f *fakeVerifier) VerifyCredentials(ctx context.Context, username, password string) (*identity.Account, error) {
	return f.verifyFn(ctx, username, password)
}

type fakeSessionManager struct {
	generateFn func(ctx context.Context, accessID string) (string, error)
	rotateFn   func(ctx context.Context, oldAccessID, provided string) (string, string, error)
	revokeFn   func(ctx context.Context, accessID string) error
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	if f.generateFn == nil {
		return "refresh-token", nil
	}
	return f.generateFn(ctx, accessID)
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if f.rotateFn == nil {
		return session.NewAccessID(), "rotated-token", nil
	}
	return f.rotateFn(ctx, oldAccessID, provided)
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	if f.revokeFn == nil {
		return nil
	}
	return f.revokeFn(ctx, accessID)
}

func jwtConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "craftshop-test",
		ExpirationMinutes: 15,
	}
}

func userFixture() *models.User {
	familyID := uuid.New()
	return &models.User{
		ID:          uuid.New(),
		OwnerID:     uuid.New(),
		FamilyID:    &familyID,
		Name:        "Maya",
		Role:        "staff",
		Permissions: pq.StringArray{string(enums.ScopeProductRead), string(enums.ScopeUserRead)},
		Email:       "maya@example.com",
		Status:      enums.UserStatusConfirmed,
	}
}

func newTestService(t *testing.T, repo *fakeUserRepo, verifier *fakeVerifier, sessions *fakeSessionManager) Service {
	t.Helper()
	if verifier == nil {
		verifier = &fakeVerifier{
			verifyFn: func(ctx context.Context, username, password string) (*identity.Account, error) {
				return &identity.Account{Username: username, Enabled: true}, nil
			},
		}
	}
	if sessions == nil {
		sessions = &fakeSessionManager{}
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		Identity:       verifier,
		SessionManager: sessions,
		JWTConfig:      jwtConfig(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLoginMintsScopedToken(t *testing.T) {
	user := userFixture()
	repo := &fakeUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			if email != user.Email {
				t.Fatalf("lookup with wrong email: %q", email)
			}
			return user, nil
		},
	}
	svc := newTestService(t, repo, nil, nil)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Maya@Example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.RefreshToken == "" {
		t.Fatal("refresh token missing")
	}
	if resp.User == nil || resp.User.ID != user.ID {
		t.Fatalf("user payload missing: %+v", resp.User)
	}

	claims, err := pkgAuth.ParseAccessToken(jwtConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("token subject mismatch: %s", claims.UserID)
	}
	scopes := claims.PermissionScopes()
	if len(scopes) != 2 || !enums.HasScope(scopes, enums.ScopeUserRead) {
		t.Fatalf("token scopes mismatch: %v", scopes)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	repo := &fakeUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			t.Fatal("user lookup must not happen when credentials fail")
			return nil, nil
		},
	}
	verifier := &fakeVerifier{
		verifyFn: func(ctx context.Context, username, password string) (*identity.Account, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		},
	}
	svc := newTestService(t, repo, verifier, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "x@example.com", Password: "bad"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsUnknownAccount(t *testing.T) {
	verifier := &fakeVerifier{
		verifyFn: func(ctx context.Context, username, password string) (*identity.Account, error) {
			return nil, identity.ErrAccountNotFound
		},
	}
	svc := newTestService(t, &fakeUserRepo{}, verifier, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "ghost@example.com", Password: "x"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	user := userFixture()
	user.Status = enums.UserStatusDisabled
	repo := &fakeUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "secret"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginMasksMissingRow(t *testing.T) {
	repo := &fakeUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*models.User, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := newTestService(t, repo, nil, nil)

	_, err := svc.Login(context.Background(), LoginRequest{Email: "orphan@example.com", Password: "x"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	user := userFixture()
	oldAccessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(jwtConfig(), time.Now().Add(-time.Hour), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		Scopes: user.Scopes(),
		JTI:    oldAccessID,
	})
	if err != nil {
		t.Fatalf("mint expired token: %v", err)
	}

	var rotatedFrom string
	sessions := &fakeSessionManager{
		rotateFn: func(ctx context.Context, gotAccessID, provided string) (string, string, error) {
			rotatedFrom = gotAccessID
			if provided != "old-refresh" {
				t.Fatalf("wrong refresh token forwarded: %q", provided)
			}
			return "new-access-id", "new-refresh", nil
		},
	}
	svc := newTestService(t, &fakeUserRepo{}, nil, sessions)

	resp, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: token, RefreshToken: "old-refresh"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotatedFrom != oldAccessID {
		t.Fatalf("rotated wrong session: %q", rotatedFrom)
	}
	if resp.RefreshToken != "new-refresh" {
		t.Fatalf("new refresh token missing: %q", resp.RefreshToken)
	}

	claims, err := pkgAuth.ParseAccessToken(jwtConfig(), resp.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.ID != "new-access-id" {
		t.Fatalf("new token must carry the rotated jti, got %q", claims.ID)
	}
	if claims.UserID != user.ID {
		t.Fatalf("identity lost in rotation: %s", claims.UserID)
	}
}

func TestRefreshRejectsInvalidSession(t *testing.T) {
	user := userFixture()
	token, err := pkgAuth.MintAccessToken(jwtConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	sessions := &fakeSessionManager{
		rotateFn: func(ctx context.Context, oldAccessID, provided string) (string, string, error) {
			return "", "", session.ErrInvalidRefreshToken
		},
	}
	svc := newTestService(t, &fakeUserRepo{}, nil, sessions)

	_, err = svc.Refresh(context.Background(), RefreshRequest{AccessToken: token, RefreshToken: "stale"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	user := userFixture()
	accessID := session.NewAccessID()
	token, err := pkgAuth.MintAccessToken(jwtConfig(), time.Now(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	var revoked string
	sessions := &fakeSessionManager{
		revokeFn: func(ctx context.Context, gotAccessID string) error {
			revoked = gotAccessID
			return nil
		},
	}
	svc := newTestService(t, &fakeUserRepo{}, nil, sessions)

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if revoked != accessID {
		t.Fatalf("wrong session revoked: %q", revoked)
	}
}
