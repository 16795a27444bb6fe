package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is an identity-directory credential record. SubjectID links back to
// the users or customers row the account authenticates.
type Account struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SubjectID    uuid.UUID `gorm:"column:subject_id;type:uuid;not null"`
	Username     string    `gorm:"column:username;type:text;not null;uniqueIndex:accounts_username_key"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Email        string    `gorm:"column:email;type:text;not null"`
	Phone        string    `gorm:"column:phone"`
	Name         string    `gorm:"column:name"`
	Enabled      bool      `gorm:"column:enabled;not null;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
