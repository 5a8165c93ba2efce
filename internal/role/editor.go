package role

import (
	"context"
	"fmt"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/editing"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/Kyz7/rbac-console/internal/selection"
	"github.com/Kyz7/rbac-console/internal/validation"
	"github.com/sirupsen/logrus"
)

// Form is the editable part of a role.
type Form struct {
	Name string
}

// Editor drives one role edit session: open, toggle, save or close.
// It is not safe for concurrent use.
type Editor struct {
	repo      Repository
	gate      access.Gate
	validator *validation.Validator
	notifier  notify.Notifier
	logger    *logrus.Logger
	state     selection.State[Form]
}

func NewEditor(repo Repository, gate access.Gate, v *validation.Validator, notifier notify.Notifier, logger *logrus.Logger) *Editor {
	return &Editor{
		repo:      repo,
		gate:      gate,
		validator: v,
		notifier:  notifier,
		logger:    logger,
	}
}

// State returns a snapshot of the current session.
func (e *Editor) State() selection.State[Form] {
	return e.state
}

func (e *Editor) Handle(ctx context.Context, p access.Principal, msg editing.Message) (editing.Reply, error) {
	switch m := msg.(type) {
	case editing.OpenEditModal:
		return editing.Reply{}, e.OpenEdit(ctx, m.ItemID, m.Entity)
	case editing.PermissionSelections:
		if m.Entity == editing.EntityRole {
			e.ApplyPermissionToggles(m.Selections)
		}
	case editing.FieldInput:
		if m.Entity == editing.EntityRole {
			return editing.Reply{}, e.SetField(m.Field, m.Value)
		}
	case editing.ModalClosed:
		e.ResetFields()
	case editing.SaveRequested:
		if m.Entity == editing.EntityRole {
			res, err := e.Save(ctx, p)
			if err != nil {
				return editing.Reply{}, err
			}
			return editing.ReplyFromSave(res), nil
		}
	}
	return editing.Reply{}, nil
}

// OpenEdit loads the role into a fresh session. Requests for other entity
// kinds are ignored.
func (e *Editor) OpenEdit(ctx context.Context, id uint, entity string) error {
	if entity != editing.EntityRole {
		return nil
	}

	r, err := e.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	e.state.Open(r.ID, Form{Name: r.Name}, r.PermissionIDs(), nil)
	return nil
}

func (e *Editor) SetField(field, value string) error {
	switch field {
	case "name":
		e.state.Fields.Name = editing.SanitizeText(value)
	default:
		return fmt.Errorf("%w: role %q", editing.ErrUnknownField, field)
	}
	return nil
}

// ApplyPermissionToggles keeps only permissions switched on that the role did
// not already hold when the session was opened. Unchecking a permission the
// role held at open time has no effect.
// TODO: confirm with product whether unchecking should revoke, as it does for users.
func (e *Editor) ApplyPermissionToggles(toggles selection.Toggles) {
	e.state.PendingPermissionIDs = selection.AddNew(toggles, e.state.BaselinePermissionIDs)
}

// PermissionsToPersist is the permission set a save writes: everything held
// at open time plus the newly checked ids.
func (e *Editor) PermissionsToPersist() selection.IDSet {
	return e.state.BaselinePermissionIDs.Union(e.state.PendingPermissionIDs)
}

func (e *Editor) Save(ctx context.Context, p access.Principal) (editing.SaveResult, error) {
	if !e.gate.CanAccess(ctx, p, access.EditRole) {
		return editing.SaveResult{}, &editing.AuthorizationError{Action: "edit role"}
	}
	if !e.state.IsOpen() {
		return editing.SaveResult{}, editing.ErrNoSession
	}

	errs, err := e.validator.ValidateRole(ctx, validation.RoleInput{
		ID:   e.state.EntityID,
		Name: e.state.Fields.Name,
	})
	if err != nil {
		return editing.SaveResult{}, err
	}
	if len(errs) > 0 {
		return editing.SaveResult{Invalid: &editing.ValidationError{Fields: errs}}, nil
	}

	if err := e.persist(ctx); err != nil {
		e.logger.WithError(err).WithField("role_id", e.state.EntityID).Warn("save role failed")
		e.notifier.Emit(notify.Toast(notify.ToastError, err.Error()))
		return editing.SaveResult{Failure: &editing.PersistenceError{Entity: editing.EntityRole, Err: err}}, nil
	}

	if inv, ok := e.gate.(access.Invalidator); ok {
		inv.Flush()
	}

	e.ResetFields()
	e.notifier.Emit(notify.Edited(editing.EntityRole))
	e.notifier.Emit(notify.Toast(notify.ToastConfirm, "Role successfully updated."))

	return editing.SaveResult{Saved: true}, nil
}

func (e *Editor) persist(ctx context.Context) error {
	r, err := e.repo.GetByID(ctx, e.state.EntityID)
	if err != nil {
		return err
	}

	changes := Changes{Name: e.state.Fields.Name}
	permissionIDs := e.PermissionsToPersist()

	return e.repo.Transaction(ctx, func(tx Repository) error {
		if err := tx.Update(ctx, r, changes); err != nil {
			return err
		}
		return tx.UpdatePermissions(ctx, r, permissionIDs)
	})
}

// ResetFields ends the session and tells the pickers to clear.
func (e *Editor) ResetFields() {
	e.state.Reset()
	e.notifier.Emit(notify.PermissionsCleared(editing.EntityRole))
}
