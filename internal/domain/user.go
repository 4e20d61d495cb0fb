package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	UserStatusOffline UserStatus = "offline"
	UserStatusOnline  UserStatus = "online"
)

func (s UserStatus) Valid() bool {
	return s == UserStatusOffline || s == UserStatusOnline
}

// Toggled returns the opposite presence state. Unknown values are treated as offline.
func (s UserStatus) Toggled() UserStatus {
	if s == UserStatusOnline {
		return UserStatusOffline
	}
	return UserStatusOnline
}

type User struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Email        string     `db:"email" json:"email"`
	FullName     *string    `db:"full_name" json:"full_name,omitempty"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Address      *string    `db:"address" json:"address,omitempty"`
	ImageURL     *string    `db:"user_image_url" json:"user_image_url,omitempty"`
	PasswordHash []byte     `db:"password_hash" json:"-"`
	PasswordSalt []byte     `db:"password_salt" json:"-"`
	Verified     bool       `db:"verified" json:"verified"`
	Status       UserStatus `db:"status" json:"status"`
	ResetToken   *string    `db:"reset_token" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	Roles        []Role     `db:"-" json:"roles,omitempty"`
}

func (u *User) HasRole(roleID uuid.UUID) bool {
	for _, role := range u.Roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

func (u *User) HasRoleNamed(name string) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// HasPassword reports whether the account can log in with a local password.
func (u *User) HasPassword() bool {
	return len(u.PasswordHash) > 0 && len(u.PasswordSalt) > 0
}

// ProfileUpdate carries the pass-through profile fields. Nil fields are left untouched.
type ProfileUpdate struct {
	FullName *string
	Phone    *string
	Address  *string
	ImageURL *string
}
