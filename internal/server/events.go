package server

import (
	"encoding/json"
	"fmt"

	"github.com/Kyz7/rbac-console/internal/editing"
	"github.com/Kyz7/rbac-console/internal/selection"
)

type eventRequest struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

type openPayload struct {
	ItemID uint   `json:"item_id"`
	Entity string `json:"entity"`
}

type selectionsPayload struct {
	Selections selection.Toggles `json:"selections"`
}

type fieldPayload struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type decoder func(payload json.RawMessage) (editing.Message, error)

// decoders maps the console's UI event names to editor messages.
var decoders = map[string]decoder{
	"open-edit-modal": func(raw json.RawMessage) (editing.Message, error) {
		var p openPayload
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return editing.OpenEditModal{ItemID: p.ItemID, Entity: p.Entity}, nil
	},
	"user-permissions": selectionsDecoder(func(t selection.Toggles) editing.Message {
		return editing.PermissionSelections{Entity: editing.EntityUser, Selections: t}
	}),
	"role-permissions": selectionsDecoder(func(t selection.Toggles) editing.Message {
		return editing.PermissionSelections{Entity: editing.EntityRole, Selections: t}
	}),
	"user-roles": selectionsDecoder(func(t selection.Toggles) editing.Message {
		return editing.RoleSelections{Selections: t}
	}),
	"user-field": fieldDecoder(editing.EntityUser),
	"role-field": fieldDecoder(editing.EntityRole),
	"modal-closed": func(json.RawMessage) (editing.Message, error) {
		return editing.ModalClosed{}, nil
	},
	"save-modal-edit-user": func(json.RawMessage) (editing.Message, error) {
		return editing.SaveRequested{Entity: editing.EntityUser}, nil
	},
	"save-modal-edit-role": func(json.RawMessage) (editing.Message, error) {
		return editing.SaveRequested{Entity: editing.EntityRole}, nil
	},
}

func selectionsDecoder(build func(selection.Toggles) editing.Message) decoder {
	return func(raw json.RawMessage) (editing.Message, error) {
		var p selectionsPayload
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if p.Selections == nil {
			p.Selections = selection.Toggles{}
		}
		return build(p.Selections), nil
	}
}

func fieldDecoder(entity string) decoder {
	return func(raw json.RawMessage) (editing.Message, error) {
		var p fieldPayload
		if err := unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return editing.FieldInput{Entity: entity, Field: p.Field, Value: p.Value}, nil
	}
}

func unmarshal(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}

func decodeEvent(req eventRequest) (editing.Message, error) {
	decode, ok := decoders[req.Event]
	if !ok {
		return nil, fmt.Errorf("unknown event %q", req.Event)
	}
	return decode(req.Payload)
}
