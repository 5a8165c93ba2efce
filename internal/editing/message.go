// Package editing holds what the user and role editors share: the messages
// a console session delivers to them, their replies and the error taxonomy.
package editing

import (
	"html"
	"strings"

	"github.com/Kyz7/rbac-console/internal/selection"
	"github.com/Kyz7/rbac-console/internal/storage"
	"github.com/Kyz7/rbac-console/internal/validation"
	"github.com/microcosm-cc/bluemonday"
)

const (
	EntityUser = "user"
	EntityRole = "role"
)

// Message is one UI interaction routed to the editors. Every editor sees
// every message and ignores the ones addressed to another entity kind.
type Message interface {
	message()
}

type OpenEditModal struct {
	ItemID uint
	Entity string
}

// PermissionSelections is the permission picker state of one entity kind.
type PermissionSelections struct {
	Entity     string
	Selections selection.Toggles
}

// RoleSelections is the role picker state of the user editor.
type RoleSelections struct {
	Selections selection.Toggles
}

type FieldInput struct {
	Entity string
	Field  string
	Value  string
}

type AvatarInput struct {
	File *storage.File
}

type ModalClosed struct{}

type SaveRequested struct {
	Entity string
}

func (OpenEditModal) message()        {}
func (PermissionSelections) message() {}
func (RoleSelections) message()       {}
func (FieldInput) message()           {}
func (AvatarInput) message()          {}
func (ModalClosed) message()          {}
func (SaveRequested) message()        {}

type SaveResult struct {
	Saved   bool
	Invalid *ValidationError
	Failure *PersistenceError
}

// Reply is what handling a message produced besides notifications.
type Reply struct {
	Errors  validation.Errors `json:"errors,omitempty"`
	Saved   bool              `json:"saved"`
	Failure string            `json:"failure,omitempty"`
}

func (r Reply) Merge(other Reply) Reply {
	if len(other.Errors) > 0 {
		if r.Errors == nil {
			r.Errors = validation.Errors{}
		}
		for field, msg := range other.Errors {
			r.Errors[field] = msg
		}
	}
	r.Saved = r.Saved || other.Saved
	if other.Failure != "" {
		r.Failure = other.Failure
	}
	return r
}

// ReplyFromSave flattens a save outcome.
func ReplyFromSave(res SaveResult) Reply {
	reply := Reply{Saved: res.Saved}
	if res.Invalid != nil {
		reply.Errors = res.Invalid.Fields
	}
	if res.Failure != nil {
		reply.Failure = res.Failure.Error()
	}
	return reply
}

var textPolicy = bluemonday.StrictPolicy()

// SanitizeText strips markup from free-text input.
func SanitizeText(s string) string {
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(s)))
}
