package user

import (
	"context"
	"fmt"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/editing"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/Kyz7/rbac-console/internal/selection"
	"github.com/Kyz7/rbac-console/internal/storage"
	"github.com/Kyz7/rbac-console/internal/utils"
	"github.com/Kyz7/rbac-console/internal/validation"
	"github.com/sirupsen/logrus"
)

// Form is the editable part of a user. Password stays empty unless the
// admin types a new one.
type Form struct {
	FullName             string
	Email                string
	Password             string
	PasswordConfirmation string
	Avatar               *storage.File
}

// Editor drives one user edit session. It is not safe for concurrent use.
type Editor struct {
	repo      Repository
	gate      access.Gate
	validator *validation.Validator
	files     storage.Storage
	notifier  notify.Notifier
	logger    *logrus.Logger
	hash      func(string) (string, error)
	state     selection.State[Form]
}

func NewEditor(repo Repository, gate access.Gate, v *validation.Validator, files storage.Storage, notifier notify.Notifier, logger *logrus.Logger) *Editor {
	return &Editor{
		repo:      repo,
		gate:      gate,
		validator: v,
		files:     files,
		notifier:  notifier,
		logger:    logger,
		hash:      utils.HashPassword,
	}
}

func (e *Editor) State() selection.State[Form] {
	return e.state
}

func (e *Editor) Handle(ctx context.Context, p access.Principal, msg editing.Message) (editing.Reply, error) {
	switch m := msg.(type) {
	case editing.OpenEditModal:
		return editing.Reply{}, e.OpenEdit(ctx, m.ItemID, m.Entity)
	case editing.PermissionSelections:
		if m.Entity == editing.EntityUser {
			e.ApplyPermissionToggles(m.Selections)
		}
	case editing.RoleSelections:
		e.ApplyRoleToggles(m.Selections)
	case editing.FieldInput:
		if m.Entity == editing.EntityUser {
			return e.SetField(ctx, m.Field, m.Value)
		}
	case editing.AvatarInput:
		return e.SetAvatar(ctx, m.File)
	case editing.ModalClosed:
		e.ResetFields()
	case editing.SaveRequested:
		if m.Entity == editing.EntityUser {
			res, err := e.Save(ctx, p)
			if err != nil {
				return editing.Reply{}, err
			}
			return editing.ReplyFromSave(res), nil
		}
	}
	return editing.Reply{}, nil
}

// OpenEdit loads the user into a fresh session. Requests for other entity
// kinds are ignored.
func (e *Editor) OpenEdit(ctx context.Context, id uint, entity string) error {
	if entity != editing.EntityUser {
		return nil
	}

	u, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	e.state.Open(u.ID, Form{FullName: u.Name, Email: u.Email}, u.PermissionIDs(), u.RoleIDs())
	return nil
}

// SetField records typed input. Password fields are validated right away
// and their errors returned.
func (e *Editor) SetField(ctx context.Context, field, value string) (editing.Reply, error) {
	switch field {
	case "full_name":
		e.state.Fields.FullName = editing.SanitizeText(value)
	case "email":
		e.state.Fields.Email = editing.SanitizeText(value)
	case "password":
		e.state.Fields.Password = value
		return e.validateField(ctx, "password")
	case "password_confirmation":
		e.state.Fields.PasswordConfirmation = value
		return e.validateField(ctx, "password_confirmation")
	default:
		return editing.Reply{}, fmt.Errorf("%w: user %q", editing.ErrUnknownField, field)
	}
	return editing.Reply{}, nil
}

func (e *Editor) SetAvatar(ctx context.Context, f *storage.File) (editing.Reply, error) {
	e.state.Fields.Avatar = f
	if f == nil {
		return editing.Reply{}, nil
	}
	return e.validateField(ctx, "avatar")
}

func (e *Editor) validateField(ctx context.Context, field string) (editing.Reply, error) {
	errs, err := e.validator.ValidateUserField(ctx, e.input(), field)
	if err != nil {
		return editing.Reply{}, err
	}
	return editing.Reply{Errors: errs}, nil
}

// ApplyPermissionToggles replaces the pending permissions with exactly the
// selected ones.
func (e *Editor) ApplyPermissionToggles(toggles selection.Toggles) {
	e.state.PendingPermissionIDs = selection.Rebuild(toggles)
}

func (e *Editor) ApplyRoleToggles(toggles selection.Toggles) {
	e.state.PendingRoleIDs = selection.Rebuild(toggles)
}

func (e *Editor) Save(ctx context.Context, p access.Principal) (editing.SaveResult, error) {
	if !e.gate.CanAccess(ctx, p, access.EditUser) {
		return editing.SaveResult{}, &editing.AuthorizationError{Action: "edit user"}
	}
	if !e.state.IsOpen() {
		return editing.SaveResult{}, editing.ErrNoSession
	}

	errs, err := e.validator.ValidateUser(ctx, e.input())
	if err != nil {
		return editing.SaveResult{}, err
	}
	if len(errs) > 0 {
		return editing.SaveResult{Invalid: &editing.ValidationError{Fields: errs}}, nil
	}

	userID := e.state.EntityID
	if err := e.persist(ctx); err != nil {
		e.logger.WithError(err).WithField("user_id", userID).Warn("save user failed")
		e.notifier.Emit(notify.Toast(notify.ToastError, err.Error()))
		return editing.SaveResult{Failure: &editing.PersistenceError{Entity: editing.EntityUser, Err: err}}, nil
	}

	if inv, ok := e.gate.(access.Invalidator); ok {
		inv.Invalidate(userID)
	}

	e.ResetFields()
	e.notifier.Emit(notify.Edited(editing.EntityUser))
	e.notifier.Emit(notify.Toast(notify.ToastConfirm, "User successfully updated."))

	return editing.SaveResult{Saved: true}, nil
}

func (e *Editor) persist(ctx context.Context) error {
	u, err := e.repo.GetByID(ctx, e.state.EntityID)
	if err != nil {
		return err
	}

	changes := Changes{
		Name:  e.state.Fields.FullName,
		Email: e.state.Fields.Email,
	}

	if e.state.Fields.Password != "" {
		changes.PasswordHash, err = e.hash(e.state.Fields.Password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
	}

	if e.state.Fields.Avatar != nil {
		changes.ProfilePhotoPath, err = e.files.Put(ctx, e.state.Fields.Avatar, storage.ProfilePicture, u.ID)
		if err != nil {
			return fmt.Errorf("store profile picture: %w", err)
		}
	}

	permissionIDs := e.state.PendingPermissionIDs
	roleIDs := e.state.PendingRoleIDs

	err = e.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Update(ctx, u, changes); err != nil {
			return err
		}
		if err := tx.UpdatePermissions(ctx, u, permissionIDs); err != nil {
			return err
		}
		return tx.UpdateRoles(ctx, u, roleIDs)
	})
	if err != nil && changes.ProfilePhotoPath != "" {
		if delErr := e.files.Delete(ctx, changes.ProfilePhotoPath); delErr != nil {
			e.logger.WithError(delErr).WithField("path", changes.ProfilePhotoPath).Error("remove orphaned profile picture")
		}
	}
	return err
}

// ResetFields ends the session and tells the pickers to clear.
func (e *Editor) ResetFields() {
	e.state.Reset()
	e.notifier.Emit(notify.PermissionsCleared(editing.EntityUser))
}

func (e *Editor) input() validation.UserInput {
	return validation.UserInput{
		ID:                   e.state.EntityID,
		FullName:             e.state.Fields.FullName,
		Email:                e.state.Fields.Email,
		Password:             e.state.Fields.Password,
		PasswordConfirmation: e.state.Fields.PasswordConfirmation,
		Avatar:               e.state.Fields.Avatar,
	}
}
