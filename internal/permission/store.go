package permission

import (
	"context"
	"errors"

	"github.com/Kyz7/rbac-console/internal/editing"
	"github.com/Kyz7/rbac-console/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var sortColumns = map[string]string{
	"id":         "id",
	"name":       "name",
	"created_at": "created_at",
}

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetByID(ctx context.Context, id uint) (*models.Permission, error) {
	var p models.Permission
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &editing.NotFoundError{Entity: "permission", ID: id}
		}
		return nil, err
	}
	return &p, nil
}

// GetAll lists permissions ordered by sortField, falling back to id for
// unknown columns.
func (s *Store) GetAll(ctx context.Context, sortField string) ([]models.Permission, error) {
	var perms []models.Permission
	err := s.db.WithContext(ctx).Order(orderBy(sortField)).Find(&perms).Error
	return perms, err
}

// Ensure creates the named permission unless it already exists.
func (s *Store) Ensure(ctx context.Context, name, description string) (*models.Permission, error) {
	p := models.Permission{Name: name, Description: description}
	err := s.db.WithContext(ctx).
		Where(models.Permission{Name: name}).
		Attrs(models.Permission{Description: description}).
		FirstOrCreate(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func orderBy(sortField string) clause.OrderByColumn {
	column, ok := sortColumns[sortField]
	if !ok {
		column = "id"
	}
	return clause.OrderByColumn{Column: clause.Column{Name: column}}
}
