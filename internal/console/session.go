// Package console keeps one pair of editors per open admin console and
// routes UI messages to them.
package console

import (
	"context"
	"sync"
	"time"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/editing"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/Kyz7/rbac-console/internal/role"
	"github.com/Kyz7/rbac-console/internal/user"
)

// Handler is implemented by both editors.
type Handler interface {
	Handle(ctx context.Context, p access.Principal, msg editing.Message) (editing.Reply, error)
}

// Result is everything one dispatched message produced.
type Result struct {
	editing.Reply
	Events []notify.Event `json:"events"`
}

type Session struct {
	ID        string
	Principal access.Principal
	CreatedAt time.Time

	mu       sync.Mutex
	users    *user.Editor
	roles    *role.Editor
	handlers []Handler
	events   *notify.Recorder
}

func (s *Session) Users() *user.Editor { return s.users }

func (s *Session) Roles() *role.Editor { return s.roles }

// Dispatch hands msg to every editor in turn and collects their replies
// together with the notifications they emitted. The first editor error
// stops dispatch; notifications emitted before it are still returned.
func (s *Session) Dispatch(ctx context.Context, msg editing.Message) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reply editing.Reply
	for _, h := range s.handlers {
		r, err := h.Handle(ctx, s.Principal, msg)
		if err != nil {
			return Result{Events: s.events.Drain()}, err
		}
		reply = reply.Merge(r)
	}

	return Result{Reply: reply, Events: s.events.Drain()}, nil
}
