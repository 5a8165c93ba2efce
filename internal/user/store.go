package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kyz7/rbac-console/internal/association"
	"github.com/Kyz7/rbac-console/internal/editing"
	"github.com/Kyz7/rbac-console/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is what the user editor needs from persistence.
type Repository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// Transaction runs fn against a repository bound to one database
	// transaction, committing only if fn returns nil.
	Transaction(ctx context.Context, fn func(tx Repository) error) error
	Update(ctx context.Context, u *models.User, changes Changes) error
	UpdatePermissions(ctx context.Context, u *models.User, permissionIDs []uint) error
	UpdateRoles(ctx context.Context, u *models.User, roleIDs []uint) error
}

// Changes holds the scalar columns a save writes. Empty PasswordHash and
// ProfilePhotoPath leave the stored values alone.
type Changes struct {
	Name             string
	Email            string
	PasswordHash     string
	ProfilePhotoPath string
}

var sortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"email":      "email",
	"created_at": "created_at",
}

var uniqueColumns = map[string]bool{
	"email": true,
	"name":  true,
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		Preload("Permissions", func(db *gorm.DB) *gorm.DB { return db.Order("permissions.id") }).
		Preload("Roles", func(db *gorm.DB) *gorm.DB { return db.Order("roles.id") }).
		First(&u, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &editing.NotFoundError{Entity: editing.EntityUser, ID: id}
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetAll(ctx context.Context, sortField string) ([]models.User, error) {
	column, ok := sortColumns[sortField]
	if !ok {
		column = "id"
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}}).
		Find(&users).Error
	return users, err
}

// Exists reports whether another user than excludeID stores value in field.
// Soft-deleted rows count, since the unique index still covers them.
func (s *Store) Exists(ctx context.Context, field, value string, excludeID uint) (bool, error) {
	if !uniqueColumns[field] {
		return false, fmt.Errorf("user field %q is not unique-checked", field)
	}

	var count int64
	err := s.db.WithContext(ctx).
		Unscoped().
		Model(&models.User{}).
		Where(clause.Eq{Column: clause.Column{Name: field}, Value: value}).
		Where("id <> ?", excludeID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Update writes only the columns that differ from u.
func (s *Store) Update(ctx context.Context, u *models.User, changes Changes) error {
	updates := map[string]interface{}{}
	if changes.Name != u.Name {
		updates["name"] = changes.Name
	}
	if changes.Email != u.Email {
		updates["email"] = changes.Email
	}
	if changes.PasswordHash != "" {
		updates["password"] = changes.PasswordHash
	}
	if changes.ProfilePhotoPath != "" && changes.ProfilePhotoPath != u.ProfilePhotoPath {
		updates["profile_photo_path"] = changes.ProfilePhotoPath
	}
	if len(updates) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Model(u).Omit(clause.Associations).Updates(updates).Error
}

func (s *Store) UpdatePermissions(ctx context.Context, u *models.User, permissionIDs []uint) error {
	return association.Replace(ctx, s.db, association.UserPermissions, u.ID, permissionIDs)
}

func (s *Store) UpdateRoles(ctx context.Context, u *models.User, roleIDs []uint) error {
	return association.Replace(ctx, s.db, association.UserRoles, u.ID, roleIDs)
}
