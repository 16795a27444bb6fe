package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/craftshoplabs/craftshop-backend/internal/authz"
)

// Account is the directory's view of a credential record. The password hash
// never leaves the package.
type Account struct {
	ID        uuid.UUID
	SubjectID uuid.UUID
	Username  string
	Email     string
	Phone     string
	Name      string
	Enabled   bool
}

// CreateAccountInput describes a new directory account. TempPassword is
// optional; when empty the directory generates one and returns it.
type CreateAccountInput struct {
	SubjectID    uuid.UUID
	Username     string
	TempPassword string
	Email        string
	Phone        string
	Name         string
}

// Attributes carries partial attribute updates; nil fields stay untouched.
type Attributes struct {
	Email *string
	Phone *string
	Name  *string
}

// Provider is the identity directory contract the domain services depend on.
type Provider interface {
	CreateAccount(ctx context.Context, input CreateAccountInput) (*Account, string, error)
	DeleteAccount(ctx context.Context, username string) error
	DisableAccount(ctx context.Context, username string) error
	EnableAccount(ctx context.Context, username string) error
	UpdateAttributes(ctx context.Context, username string, attrs Attributes) error
	FindByUsername(ctx context.Context, username string) (*Account, error)
	VerifyCredentials(ctx context.Context, username, password string) (*Account, error)
	VerifyToken(ctx context.Context, token string) (authz.Principal, error)
}
