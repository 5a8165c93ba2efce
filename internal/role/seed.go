package role

import (
	"context"
	"errors"
	"strings"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/models"
	"github.com/Kyz7/rbac-console/internal/permission"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type defaultRole struct {
	name         string
	description  string
	capabilities []string
}

var defaultRoles = []defaultRole{
	{
		name:         "admin",
		description:  "Full access to users, roles and permissions",
		capabilities: access.Capabilities,
	},
	// Viewer - read only
	{
		name:         "viewer",
		description:  "Can browse users, roles and permissions",
		capabilities: []string{access.ViewUsers, access.ViewRoles, access.ViewPermissions},
	},
}

// SeedDefaults makes sure every console capability exists as a permission
// and that the default roles are present. Existing roles are left alone.
func SeedDefaults(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	perms := permission.NewStore(db)

	ids := make(map[string]uint, len(access.Capabilities))
	for _, capability := range access.Capabilities {
		p, err := perms.Ensure(ctx, capability, describe(capability))
		if err != nil {
			return err
		}
		ids[capability] = p.ID
	}

	roles := NewStore(db)
	for _, def := range defaultRoles {
		var existing models.Role
		err := db.WithContext(ctx).Where("name = ?", def.name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		permissionIDs := make([]uint, 0, len(def.capabilities))
		for _, capability := range def.capabilities {
			permissionIDs = append(permissionIDs, ids[capability])
		}

		if _, err := roles.Create(ctx, def.name, def.description, permissionIDs); err != nil {
			return err
		}
		logger.WithField("role", def.name).Info("seeded default role")
	}

	return nil
}

// describe turns "edit_user" into "Edit user".
func describe(capability string) string {
	words := strings.ReplaceAll(capability, "_", " ")
	if words == "" {
		return words
	}
	return strings.ToUpper(words[:1]) + words[1:]
}
