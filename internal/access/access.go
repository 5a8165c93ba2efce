// Package access answers whether an acting user holds a named capability,
// counting both direct grants and grants inherited through roles.
package access

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Kyz7/rbac-console/internal/models"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	ViewUsers       = "view_users"
	AddUser         = "add_user"
	EditUser        = "edit_user"
	ViewRoles       = "view_roles"
	AddRole         = "add_role"
	EditRole        = "edit_role"
	ViewPermissions = "view_permissions"
	AddPermission   = "add_permission"
	EditPermission  = "edit_permission"
)

// Capabilities lists every capability the console knows about.
var Capabilities = []string{
	ViewUsers, AddUser, EditUser,
	ViewRoles, AddRole, EditRole,
	ViewPermissions, AddPermission, EditPermission,
}

// Principal is the user performing an action.
type Principal struct {
	UserID uint
}

type Gate interface {
	CanAccess(ctx context.Context, p Principal, capability string) bool
}

// Invalidator is implemented by gates that cache grants.
type Invalidator interface {
	Invalidate(userID uint)
	Flush()
}

type GateFunc func(ctx context.Context, p Principal, capability string) bool

func (f GateFunc) CanAccess(ctx context.Context, p Principal, capability string) bool {
	return f(ctx, p, capability)
}

// PermissionGate resolves capabilities from the database and caches the
// resolved set per user.
type PermissionGate struct {
	db     *gorm.DB
	cache  *gocache.Cache
	logger *logrus.Logger
}

func NewPermissionGate(db *gorm.DB, ttl time.Duration, logger *logrus.Logger) *PermissionGate {
	return &PermissionGate{
		db:     db,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
	}
}

func (g *PermissionGate) CanAccess(ctx context.Context, p Principal, capability string) bool {
	if p.UserID == 0 {
		return false
	}

	granted, err := g.Capabilities(ctx, p.UserID)
	if err != nil {
		g.logger.WithError(err).WithField("user_id", p.UserID).Error("resolve capabilities")
		return false
	}

	_, ok := granted[capability]
	return ok
}

// Capabilities returns the names of every permission the user holds.
func (g *PermissionGate) Capabilities(ctx context.Context, userID uint) (map[string]struct{}, error) {
	key := cacheKey(userID)
	if cached, ok := g.cache.Get(key); ok {
		return cached.(map[string]struct{}), nil
	}

	var direct []string
	err := g.db.WithContext(ctx).
		Model(&models.Permission{}).
		Joins("JOIN user_permissions ON user_permissions.permission_id = permissions.id").
		Where("user_permissions.user_id = ?", userID).
		Pluck("permissions.name", &direct).Error
	if err != nil {
		return nil, fmt.Errorf("load direct permissions: %w", err)
	}

	var inherited []string
	err = g.db.WithContext(ctx).
		Model(&models.Permission{}).
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Joins("JOIN roles ON roles.id = user_roles.role_id AND roles.deleted_at IS NULL").
		Where("user_roles.user_id = ?", userID).
		Pluck("permissions.name", &inherited).Error
	if err != nil {
		return nil, fmt.Errorf("load role permissions: %w", err)
	}

	granted := make(map[string]struct{}, len(direct)+len(inherited))
	for _, name := range append(direct, inherited...) {
		granted[name] = struct{}{}
	}

	g.cache.SetDefault(key, granted)
	return granted, nil
}

func (g *PermissionGate) Invalidate(userID uint) {
	g.cache.Delete(cacheKey(userID))
}

func (g *PermissionGate) Flush() {
	g.cache.Flush()
}

func cacheKey(userID uint) string {
	return "caps:" + strconv.FormatUint(uint64(userID), 10)
}
