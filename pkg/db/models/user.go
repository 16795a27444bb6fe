package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	dbtypes "github.com/craftshoplabs/craftshop-backend/pkg/db/types"
	"github.com/craftshoplabs/craftshop-backend/pkg/enums"
)

// User is an invited collaborator. OwnerID points at the inviter; OwnerIDs is
// the denormalized membership set the fan-out engine maintains.
type User struct {
	ID           uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      uuid.UUID         `gorm:"column:owner_id;type:uuid;not null"`
	FamilyID     *uuid.UUID        `gorm:"column:family_id;type:uuid"`
	OwnerIDs     dbtypes.UUIDArray `gorm:"column:owner_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	Name         string            `gorm:"column:name;not null"`
	Role         string            `gorm:"column:role;not null"`
	Permissions  pq.StringArray    `gorm:"column:permissions;type:text[];not null;default:ARRAY[]::text[]"`
	Email        string            `gorm:"column:email;type:text;not null;uniqueIndex:users_email_key"`
	Phone        string            `gorm:"column:phone"`
	Status       enums.UserStatus  `gorm:"column:status;not null;default:'pending'"`
	ConnectionID *string           `gorm:"column:connection_id"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Scopes converts the stored permission strings into typed grants.
func (u *User) Scopes() []enums.PermissionScope {
	scopes := make([]enums.PermissionScope, 0, len(u.Permissions))
	for _, raw := range u.Permissions {
		if scope, err := enums.ParsePermissionScope(raw); err == nil {
			scopes = append(scopes, scope)
		}
	}
	return scopes
}
