package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"size:100" json:"name"`
	Email            string         `gorm:"uniqueIndex;size:100" json:"email"`
	Password         string         `gorm:"size:255" json:"-"`
	ProfilePhotoPath string         `gorm:"size:500" json:"profile_photo_path,omitempty"`
	Roles            []Role         `gorm:"many2many:user_roles" json:"roles,omitempty"`
	Permissions      []Permission   `gorm:"many2many:user_permissions" json:"permissions,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

// PermissionIDs returns the ids of the directly granted permissions.
func (u *User) PermissionIDs() []uint {
	return permissionIDs(u.Permissions)
}

// RoleIDs returns the ids of the assigned roles.
func (u *User) RoleIDs() []uint {
	ids := make([]uint, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}
