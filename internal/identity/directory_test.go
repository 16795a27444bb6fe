package identity

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	pkgauth "github.com/craftshoplabs/craftshop-backend/pkg/auth"
	"github.com/craftshoplabs/craftshop-backend/pkg/config"
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "craftshop-test",
		ExpirationMinutes: 15,
	}
}

func TestVerifyTokenRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	d := &Directory{jwtCfg: cfg}

	familyID := uuid.New()
	payload := pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		FamilyID: &familyID,
		Role:     "staff",
		Scopes:   []enums.PermissionScope{enums.ScopeProductRead, enums.ScopeUserRead},
	}
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	principal, err := d.VerifyToken(context.Background(), token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if principal.ID != payload.UserID {
		t.Fatalf("principal id mismatch: %s", principal.ID)
	}
	if principal.FamilyID == nil || *principal.FamilyID != familyID {
		t.Fatalf("family id not preserved: %v", principal.FamilyID)
	}
	if len(principal.Scopes) != 2 || !principal.HasScope(enums.ScopeUserRead) {
		t.Fatalf("scopes not preserved: %v", principal.Scopes)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	d := &Directory{jwtCfg: testJWTConfig()}

	_, err := d.VerifyToken(context.Background(), "not-a-token")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("CRAFTSHOP_DB_DSN")
	if dsn == "" {
		t.Skip("CRAFTSHOP_DB_DSN is not set")
	}

	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	return conn
}

func TestAccountLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	directory, err := NewDirectory(db, config.PasswordConfig{}, testJWTConfig())
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}

	username := "Lifecycle." + uuid.NewString() + "@example.com"
	subject := uuid.New()
	account, tempPassword, err := directory.CreateAccount(ctx, CreateAccountInput{
		SubjectID: subject,
		Username:  username,
		Email:     username,
		Name:      "Lifecycle Tester",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	t.Cleanup(func() { db.Delete(&models.Account{}, "id = ?", account.ID) })

	if tempPassword == "" {
		t.Fatal("expected generated temp password")
	}
	if account.SubjectID != subject {
		t.Fatalf("subject not stored: %s", account.SubjectID)
	}

	// Lookup is case-insensitive.
	found, err := directory.FindByUsername(ctx, username)
	if err != nil {
		t.Fatalf("find by username: %v", err)
	}
	if found.ID != account.ID {
		t.Fatalf("lookup returned wrong account: %s", found.ID)
	}

	verified, err := directory.VerifyCredentials(ctx, username, tempPassword)
	if err != nil {
		t.Fatalf("verify credentials: %v", err)
	}
	if verified.ID != account.ID {
		t.Fatalf("verify returned wrong account: %s", verified.ID)
	}

	if _, err := directory.VerifyCredentials(ctx, username, "wrong-password"); err == nil {
		t.Fatal("wrong password must not verify")
	}

	if err := directory.DisableAccount(ctx, username); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if _, err := directory.VerifyCredentials(ctx, username, tempPassword); err == nil {
		t.Fatal("disabled account must not verify")
	}
	if err := directory.EnableAccount(ctx, username); err != nil {
		t.Fatalf("enable: %v", err)
	}

	newPhone := "+15550100"
	if err := directory.UpdateAttributes(ctx, username, Attributes{Phone: &newPhone}); err != nil {
		t.Fatalf("update attributes: %v", err)
	}
	found, err = directory.FindByUsername(ctx, username)
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if found.Phone != newPhone {
		t.Fatalf("phone not updated: %q", found.Phone)
	}

	if err := directory.DeleteAccount(ctx, username); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := directory.FindByUsername(ctx, username); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestDeleteMissingAccount(t *testing.T) {
	db := openTestDB(t)
	directory, err := NewDirectory(db, config.PasswordConfig{}, testJWTConfig())
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	if err := directory.DeleteAccount(context.Background(), "nobody@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
