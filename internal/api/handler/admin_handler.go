package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mietgram/campus-api/internal/core/ports"
)

// AdminHandler serves moderation routes. It is mounted behind RBAC(Admin).
type AdminHandler struct {
	social ports.SocialService
}

func NewAdminHandler(social ports.SocialService) *AdminHandler {
	return &AdminHandler{social: social}
}

// Ban handles POST /admin/users/:id/ban.
//
// @Summary      Ban a user
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /admin/users/{id}/ban [post]
func (h *AdminHandler) Ban(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.social.Ban(c.Request().Context(), adminID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Unban handles DELETE /admin/users/:id/ban.
//
// @Summary      Lift a ban
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /admin/users/{id}/ban [delete]
func (h *AdminHandler) Unban(c echo.Context) error {
	adminID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.social.Unban(c.Request().Context(), adminID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
