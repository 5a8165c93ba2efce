package server

import (
	"errors"
	"io"

	"github.com/Kyz7/rbac-console/internal/access"
	"github.com/Kyz7/rbac-console/internal/auth"
	"github.com/Kyz7/rbac-console/internal/console"
	"github.com/Kyz7/rbac-console/internal/editing"
	"github.com/Kyz7/rbac-console/internal/permission"
	"github.com/Kyz7/rbac-console/internal/response"
	"github.com/Kyz7/rbac-console/internal/role"
	"github.com/Kyz7/rbac-console/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type handler struct {
	gate        access.Gate
	sessions    *console.Registry
	permissions *permission.Store
	roles       *role.Store
	logger      *logrus.Logger
}

func newHandler(deps Deps, sessions *console.Registry) *handler {
	return &handler{
		gate:        deps.Gate,
		sessions:    sessions,
		permissions: permission.NewStore(deps.DB),
		roles:       role.NewStore(deps.DB),
		logger:      deps.Logger,
	}
}

func (h *handler) createSession(c *fiber.Ctx) error {
	s := h.sessions.Create(auth.PrincipalFrom(c))
	return response.Created(c, fiber.Map{"id": s.ID}, "Console session opened")
}

func (h *handler) closeSession(c *fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id"), auth.PrincipalFrom(c)); err != nil {
		return h.fail(c, err)
	}
	return response.NoContent(c)
}

func (h *handler) dispatchEvent(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"), auth.PrincipalFrom(c))
	if err != nil {
		return h.fail(c, err)
	}

	var req eventRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body", nil)
	}

	msg, err := decodeEvent(req)
	if err != nil {
		return response.BadRequest(c, err.Error(), nil)
	}

	return h.dispatch(c, s, msg)
}

func (h *handler) uploadAvatar(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"), auth.PrincipalFrom(c))
	if err != nil {
		return h.fail(c, err)
	}

	fh, err := c.FormFile("avatar")
	if err != nil {
		return response.BadRequest(c, "avatar file is required", nil)
	}

	src, err := fh.Open()
	if err != nil {
		return response.InternalError(c, "Failed to read upload")
	}
	defer src.Close()

	content, err := io.ReadAll(src)
	if err != nil {
		return response.InternalError(c, "Failed to read upload")
	}

	return h.dispatch(c, s, editing.AvatarInput{File: &storage.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     content,
	}})
}

func (h *handler) dispatch(c *fiber.Ctx, s *console.Session, msg editing.Message) error {
	res, err := s.Dispatch(c.UserContext(), msg)
	if err != nil {
		return h.fail(c, err)
	}

	if _, isSave := msg.(editing.SaveRequested); isSave && len(res.Errors) > 0 {
		return response.ValidationError(c, res.Errors)
	}

	return response.Success(c, res, "")
}

func (h *handler) listPermissions(c *fiber.Ctx) error {
	perms, err := h.permissions.GetAll(c.UserContext(), c.Query("sort", "name"))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, perms, "")
}

func (h *handler) listRoles(c *fiber.Ctx) error {
	roles, err := h.roles.GetAll(c.UserContext(), c.Query("sort", "name"))
	if err != nil {
		return h.fail(c, err)
	}
	return response.Success(c, roles, "")
}

// fail maps editor and registry errors onto the response envelope.
func (h *handler) fail(c *fiber.Ctx, err error) error {
	var authErr *editing.AuthorizationError

	switch {
	case errors.As(err, &authErr):
		return response.Forbidden(c, authErr.Error())
	case errors.Is(err, editing.ErrNotFound):
		return response.Error(c, fiber.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, console.ErrSessionNotFound):
		return response.NotFound(c, "Console session")
	case errors.Is(err, editing.ErrNoSession):
		return response.Conflict(c, "Nothing is open for editing")
	case errors.Is(err, editing.ErrUnknownField):
		return response.BadRequest(c, err.Error(), nil)
	default:
		h.logger.WithError(err).WithField("path", c.Path()).Error("console request failed")
		return response.InternalError(c, "Internal server error")
	}
}
