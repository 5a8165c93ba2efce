package models

import (
	"time"

	"gorm.io/datatypes"
)

// ConsoleEvent is an outbox row for a notification emitted by an editor.
type ConsoleEvent struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:100;index" json:"name"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}
