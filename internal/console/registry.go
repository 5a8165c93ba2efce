package console

import (
	"errors"
	"time"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/notify"
	"github.com/Kyz7/rbac-console/internal/role"
	"github.com/Kyz7/rbac-console/internal/storage"
	"github.com/Kyz7/rbac-console/internal/user"
	"github.com/Kyz7/rbac-console/internal/validation"
	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned for unknown, expired or foreign sessions.
var ErrSessionNotFound = errors.New("console session not found")

type Deps struct {
	DB      *gorm.DB
	Gate    access.Gate
	Storage storage.Storage
	// Notifier receives every event in addition to the session itself.
	Notifier notify.Notifier
	Logger   *logrus.Logger
}

// Registry holds open console sessions until they idle out.
type Registry struct {
	deps     Deps
	sessions *gocache.Cache
	users    *user.Store
	roles    *role.Store
	v        *validation.Validator
}

func NewRegistry(deps Deps, ttl time.Duration) *Registry {
	users := user.NewStore(deps.DB)
	roles := role.NewStore(deps.DB)

	r := &Registry{
		deps:     deps,
		sessions: gocache.New(ttl, ttl),
		users:    users,
		roles:    roles,
		v:        validation.New(roles.Exists, users.Exists),
	}

	r.sessions.OnEvicted(func(id string, _ interface{}) {
		deps.Logger.WithField("session_id", id).Debug("console session closed")
	})

	return r
}

func (r *Registry) Create(p access.Principal) *Session {
	events := &notify.Recorder{}
	var sink notify.Notifier = events
	if r.deps.Notifier != nil {
		sink = notify.Fanout{events, r.deps.Notifier}
	}

	s := &Session{
		ID:        uuid.NewString(),
		Principal: p,
		CreatedAt: time.Now(),
		users:     user.NewEditor(r.users, r.deps.Gate, r.v, r.deps.Storage, sink, r.deps.Logger),
		roles:     role.NewEditor(r.roles, r.deps.Gate, r.v, sink, r.deps.Logger),
		events:    events,
	}
	s.handlers = []Handler{s.users, s.roles}

	r.sessions.SetDefault(s.ID, s)
	r.deps.Logger.WithFields(logrus.Fields{"session_id": s.ID, "user_id": p.UserID}).Info("console session opened")

	return s
}

// Get returns the session if it belongs to p and extends its lifetime.
func (r *Registry) Get(id string, p access.Principal) (*Session, error) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	s := v.(*Session)
	if s.Principal.UserID != p.UserID {
		return nil, ErrSessionNotFound
	}

	r.sessions.SetDefault(id, s)
	return s, nil
}

func (r *Registry) Delete(id string, p access.Principal) error {
	if _, err := r.Get(id, p); err != nil {
		return err
	}
	r.sessions.Delete(id)
	return nil
}

func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}
