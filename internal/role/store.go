package role

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

// Repository is what the role editor needs from persistence.
type Repository interface {
	GetByID(ctx context.Context, id uint) (*models.Role, error)
	// Transaction runs fn against a repository bound to one database
	// transaction, committing only if fn returns nil.
	Transaction(ctx context.Context, fn func(tx Repository) error) error
	Update(ctx context.Context, r *models.Role, changes Changes) error
	UpdatePermissions(ctx context.Context, r *models.Role, permissionIDs []uint) error
}

// Changes holds the scalar columns a save writes.
type Changes struct {
	Name string
}

var sortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"created_at": "created_at",
}

var uniqueColumns = map[string]bool{
	"name": true,
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetByID(ctx context.Context, id uint) (*models.Role, error) {
	var r models.Role
	err := s.db.WithContext(ctx).
		Preload("Permissions", func(db *gorm.DB) *gorm.DB { return db.Order("permissions.id") }).
		First(&r, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &editing.NotFoundError{Entity: editing.EntityRole, ID: id}
		}
		return nil, err
	}
	return &r, nil
}

func (s *Store) GetAll(ctx context.Context, sortField string) ([]models.Role, error) {
	column, ok := sortColumns[sortField]
	if !ok {
		column = "id"
	}

	var roles []models.Role
	err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}}).
		Find(&roles).Error
	return roles, err
}

// Exists reports whether another role than excludeID stores value in field.
// Soft-deleted rows count, since the unique index still covers them.
func (s *Store) Exists(ctx context.Context, field, value string, excludeID uint) (bool, error) {
	if !uniqueColumns[field] {
		return false, fmt.Errorf("role field %q is not unique-checked", field)
	}

	var count int64
	err := s.db.WithContext(ctx).
		Unscoped().
		Model(&models.Role{}).
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

func (s *Store) Update(ctx context.Context, r *models.Role, changes Changes) error {
	if changes.Name == r.Name {
		return nil
	}
	return s.db.WithContext(ctx).Model(r).Omit(clause.Associations).Update("name", changes.Name).Error
}

func (s *Store) UpdatePermissions(ctx context.Context, r *models.Role, permissionIDs []uint) error {
	return association.Replace(ctx, s.db, association.RolePermissions, r.ID, permissionIDs)
}

// Create inserts a role holding the given permissions.
func (s *Store) Create(ctx context.Context, name, description string, permissionIDs []uint) (*models.Role, error) {
	r := models.Role{Name: name, Description: description}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&r).Error; err != nil {
			return err
		}
		return association.Replace(ctx, tx, association.RolePermissions, r.ID, permissionIDs)
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}
