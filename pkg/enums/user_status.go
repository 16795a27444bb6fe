package enums

import "fmt"

// UserStatus mirrors the identity directory account state.
type UserStatus string

const (
	UserStatusPending   UserStatus = "pending"
	UserStatusConfirmed UserStatus = "confirmed"
	UserStatusDisabled  UserStatus = "disabled"
)

var validUserStatuses = []UserStatus{
	UserStatusPending,
	UserStatusConfirmed,
	UserStatusDisabled,
}

// String implements fmt.Stringer.
func (s UserStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known UserStatus.
func (s UserStatus) IsValid() bool {
	for _, candidate := range validUserStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseUserStatus converts raw input into a UserStatus.
func ParseUserStatus(value string) (UserStatus, error) {
	for _, candidate := range validUserStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user status %q", value)
}
