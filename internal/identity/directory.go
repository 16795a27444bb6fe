package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/craftshoplabs/craftshop-backend/internal/authz"
	pkgauth "github.com/craftshoplabs/craftshop-backend/pkg/auth"
	"github.com/craftshoplabs/craftshop-backend/pkg/config"
	"github.com/craftshoplabs/craftshop-backend/pkg/db/models"
	pkgerrors "github.com/craftshoplabs/craftshop-backend/pkg/errors"
	"github.com/craftshoplabs/craftshop-backend/pkg/security"
)

const tempPasswordLength = 16

// ErrAccountNotFound is returned when no directory account matches.
var ErrAccountNotFound = errors.New("identity account not found")

// Directory is the gorm-backed Provider implementation. Credentials are
// argon2id hashes; tokens are the service's own HS256 JWTs.
type Directory struct {
	db          *gorm.DB
	passwordCfg config.PasswordConfig
	jwtCfg      config.JWTConfig
}

// NewDirectory builds the directory provider.
func NewDirectory(db *gorm.DB, passwordCfg config.PasswordConfig, jwtCfg config.JWTConfig) (*Directory, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &Directory{db: db, passwordCfg: passwordCfg, jwtCfg: jwtCfg}, nil
}

func (d *Directory) CreateAccount(ctx context.Context, input CreateAccountInput) (*Account, string, error) {
	username := normalizeUsername(input.Username)
	if username == "" {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	if input.SubjectID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "subject id is required")
	}

	password := input.TempPassword
	if password == "" {
		generated, err := security.GenerateTempPassword(tempPasswordLength)
		if err != nil {
			return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generating temp password")
		}
		password = generated
	}
	hash, err := security.HashPassword(password, d.passwordCfg)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	record := &models.Account{
		SubjectID:    input.SubjectID,
		Username:     username,
		PasswordHash: hash,
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Phone:        strings.TrimSpace(input.Phone),
		Name:         strings.TrimSpace(input.Name),
		Enabled:      true,
	}
	if err := d.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, "", fmt.Errorf("creating account %s: %w", username, err)
	}
	return fromRecord(record), password, nil
}

func (d *Directory) DeleteAccount(ctx context.Context, username string) error {
	res := d.db.WithContext(ctx).
		Where("lower(username) = ?", normalizeUsername(username)).
		Delete(&models.Account{})
	if res.Error != nil {
		return fmt.Errorf("deleting account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (d *Directory) DisableAccount(ctx context.Context, username string) error {
	return d.setEnabled(ctx, username, false)
}

func (d *Directory) EnableAccount(ctx context.Context, username string) error {
	return d.setEnabled(ctx, username, true)
}

func (d *Directory) setEnabled(ctx context.Context, username string, enabled bool) error {
	res := d.db.WithContext(ctx).Model(&models.Account{}).
		Where("lower(username) = ?", normalizeUsername(username)).
		Updates(map[string]any{"enabled": enabled})
	if res.Error != nil {
		return fmt.Errorf("toggling account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (d *Directory) UpdateAttributes(ctx context.Context, username string, attrs Attributes) error {
	updates := map[string]any{}
	if attrs.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*attrs.Email))
	}
	if attrs.Phone != nil {
		updates["phone"] = strings.TrimSpace(*attrs.Phone)
	}
	if attrs.Name != nil {
		updates["name"] = strings.TrimSpace(*attrs.Name)
	}
	if len(updates) == 0 {
		return nil
	}

	res := d.db.WithContext(ctx).Model(&models.Account{}).
		Where("lower(username) = ?", normalizeUsername(username)).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating account attributes: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (d *Directory) FindByUsername(ctx context.Context, username string) (*Account, error) {
	record, err := d.findRecord(ctx, username)
	if err != nil {
		return nil, err
	}
	return fromRecord(record), nil
}

func (d *Directory) VerifyCredentials(ctx context.Context, username, password string) (*Account, error) {
	record, err := d.findRecord(ctx, username)
	if err != nil {
		return nil, err
	}
	valid, err := security.VerifyPassword(password, record.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verifying password: %w", err)
	}
	if !valid || !record.Enabled {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return fromRecord(record), nil
}

// VerifyToken parses a bearer token into the principal the evaluator works
// with. The scope claim is authoritative; no directory lookup happens here.
func (d *Directory) VerifyToken(ctx context.Context, token string) (authz.Principal, error) {
	claims, err := pkgauth.ParseAccessToken(d.jwtCfg, token)
	if err != nil {
		return authz.Principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.UserID == uuid.Nil {
		return authz.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}
	return authz.Principal{
		ID:       claims.UserID,
		FamilyID: claims.FamilyID,
		Role:     claims.Role,
		Scopes:   claims.PermissionScopes(),
	}, nil
}

func (d *Directory) findRecord(ctx context.Context, username string) (*models.Account, error) {
	var record models.Account
	err := d.db.WithContext(ctx).
		Where("lower(username) = ?", normalizeUsername(username)).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("looking up account: %w", err)
	}
	return &record, nil
}

func fromRecord(record *models.Account) *Account {
	return &Account{
		ID:        record.ID,
		SubjectID: record.SubjectID,
		Username:  record.Username,
		Email:     record.Email,
		Phone:     record.Phone,
		Name:      record.Name,
		Enabled:   record.Enabled,
	}
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
