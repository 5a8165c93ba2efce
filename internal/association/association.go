// Package association reconciles many-to-many link tables against a desired
// id set, writing only the rows that differ.
package association

import (
	"context"
	"fmt"

	"github.com/Kyz7/rbac-console/internal/models"
	"github.com/Kyz7/rbac-console/internal/selection"
	"gorm.io/gorm"
)

// Link names a join table, its two foreign key columns and the table the
// target column points at.
type Link struct {
	Table        string
	OwnerColumn  string
	TargetColumn string
	TargetTable  string
	// TargetModel is used to check that every requested id exists.
	TargetModel interface{}
}

var (
	UserPermissions = Link{Table: "user_permissions", OwnerColumn: "user_id", TargetColumn: "permission_id", TargetTable: "permissions", TargetModel: &models.Permission{}}
	UserRoles       = Link{Table: "user_roles", OwnerColumn: "user_id", TargetColumn: "role_id", TargetTable: "roles", TargetModel: &models.Role{}}
	RolePermissions = Link{Table: "role_permissions", OwnerColumn: "role_id", TargetColumn: "permission_id", TargetTable: "permissions", TargetModel: &models.Permission{}}
)

// Current returns the ids linked to owner, ascending. Links to soft-deleted
// targets are left out, matching what gorm preloads, so Replace never touches
// them.
func Current(ctx context.Context, db *gorm.DB, link Link, ownerID uint) (selection.IDSet, error) {
	var ids []uint
	err := db.WithContext(ctx).
		Table(link.Table).
		Joins("JOIN "+link.TargetTable+" ON "+link.TargetTable+".id = "+link.Table+"."+link.TargetColumn).
		Where(link.Table+"."+link.OwnerColumn+" = ?", ownerID).
		Where(link.TargetTable + ".deleted_at IS NULL").
		Pluck(link.Table+"."+link.TargetColumn, &ids).Error
	if err != nil {
		return nil, err
	}
	return selection.NewIDSet(ids...), nil
}

// Diff splits the move from have to want into ids to unlink and ids to link.
func Diff(have, want selection.IDSet) (remove, add []uint) {
	for _, id := range have {
		if !want.Contains(id) {
			remove = append(remove, id)
		}
	}
	for _, id := range want {
		if !have.Contains(id) {
			add = append(add, id)
		}
	}
	return remove, add
}

// Replace makes the owner's links equal to ids. Callers wanting
// all-or-nothing semantics across several links pass a transaction.
func Replace(ctx context.Context, db *gorm.DB, link Link, ownerID uint, ids []uint) error {
	if ownerID == 0 {
		return fmt.Errorf("%s: owner id required", link.Table)
	}

	want := selection.NewIDSet(ids...)
	if err := requireExisting(ctx, db, link, want); err != nil {
		return err
	}

	have, err := Current(ctx, db, link, ownerID)
	if err != nil {
		return fmt.Errorf("%s: load current links: %w", link.Table, err)
	}
	if have.Equal(want) {
		return nil
	}

	remove, add := Diff(have, want)
	tx := db.WithContext(ctx)

	if len(remove) > 0 {
		err := tx.Exec(
			"DELETE FROM "+link.Table+" WHERE "+link.OwnerColumn+" = ? AND "+link.TargetColumn+" IN ?",
			ownerID, remove,
		).Error
		if err != nil {
			return fmt.Errorf("%s: unlink: %w", link.Table, err)
		}
	}

	for _, id := range add {
		err := tx.Exec(
			"INSERT INTO "+link.Table+" ("+link.OwnerColumn+", "+link.TargetColumn+") VALUES (?, ?)",
			ownerID, id,
		).Error
		if err != nil {
			return fmt.Errorf("%s: link %d: %w", link.Table, id, err)
		}
	}

	return nil
}

func requireExisting(ctx context.Context, db *gorm.DB, link Link, ids selection.IDSet) error {
	if len(ids) == 0 || link.TargetModel == nil {
		return nil
	}

	var found []uint
	if err := db.WithContext(ctx).Model(link.TargetModel).Where("id IN ?", []uint(ids)).Pluck("id", &found).Error; err != nil {
		return err
	}

	_, missing := Diff(selection.NewIDSet(found...), ids)
	if len(missing) > 0 {
		return fmt.Errorf("%s: unknown ids %v", link.Table, missing)
	}
	return nil
}
