// Package notify carries fire-and-forget notifications from the editors to
// whatever is listening: the console response, the log and the outbox table.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Kyz7/rbac-console/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ToastEvent = "toastr"

	ToastConfirm = "confirm"
	ToastError   = "error"
)

type Event struct {
	Name    string `json:"name"`
	Entity  string `json:"entity,omitempty"`
	Type    string `json:"type,omitempty"`
	Message string `json:"message,omitempty"`
}

func Edited(entity string) Event {
	return Event{Name: entity + "-edited", Entity: entity}
}

func PermissionsCleared(entity string) Event {
	return Event{Name: entity + "-permissions-cleared", Entity: entity}
}

func Toast(kind, message string) Event {
	return Event{Name: ToastEvent, Type: kind, Message: message}
}

// Notifier never blocks the caller on delivery and reports no errors.
type Notifier interface {
	Emit(Event)
}

type Fanout []Notifier

func (f Fanout) Emit(e Event) {
	for _, n := range f {
		if n != nil {
			n.Emit(e)
		}
	}
}

// Recorder buffers events until they are drained.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Drain returns the buffered events and empties the buffer.
func (r *Recorder) Drain() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	if events == nil {
		return []Event{}
	}
	return events
}

type Log struct {
	Logger *logrus.Logger
}

func (l Log) Emit(e Event) {
	entry := l.Logger.WithField("event", e.Name)
	if e.Entity != "" {
		entry = entry.WithField("entity", e.Entity)
	}
	if e.Type == ToastError {
		entry.Warn(e.Message)
		return
	}
	entry.Info(e.Message)
}

// Outbox appends every event to the console_events table.
type Outbox struct {
	DB     *gorm.DB
	Logger *logrus.Logger
}

func (o Outbox) Emit(e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		o.Logger.WithError(err).Error("marshal console event")
		return
	}

	row := models.ConsoleEvent{Name: e.Name, Payload: datatypes.JSON(payload)}
	if err := o.DB.Create(&row).Error; err != nil {
		o.Logger.WithError(err).WithField("event", e.Name).Error("store console event")
	}
}

// Prune deletes events older than retention and reports how many went.
func (o Outbox) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	result := o.DB.WithContext(ctx).
		Where("created_at < ?", time.Now().Add(-retention)).
		Delete(&models.ConsoleEvent{})
	return result.RowsAffected, result.Error
}
