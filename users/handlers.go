package users

import (
	"net/http"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/authz"
	"github.com/HaianCao/library-management-system/models"
	"github.com/HaianCao/library-management-system/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the admin user-management endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a user management handler on the given database.
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{svc: NewService(db)}
}

// ListUsers godoc
//
//	@Summary		List users (admin)
//	@Tags			Users
//	@Produce		json
//	@Param			search	query		string	false	"Substring search"
//	@Param			role	query		string	false	"admin|user|all"
//	@Param			page	query		int		false	"Page number"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	types.SuccessResponse	"Users and total"
//	@Router			/api/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionListUsers, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	var page types.PageQuery
	if err := c.ShouldBindQuery(&page); err != nil {
		apperr.Respond(c, apperr.Invalid("Invalid pagination parameters"))
		return
	}
	page.Normalize()

	filter := ListFilter{
		Search: c.Query("search"),
		Role:   c.Query("role"),
	}

	items, total, err := h.svc.List(filter, page.Limit, page.Offset())
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": items, "total": total})
}

// UpdateRole godoc
//
//	@Summary		Change a user's role (admin)
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	models.User
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/users/{id}/role [put]
func (h *Handler) UpdateRole(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionUpdateRole, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	var body struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.Invalid("role is required"))
		return
	}

	user, err := h.svc.UpdateRole(identity.ID, c.Param("id"), body.Role)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
//
//	@Summary		Delete a user (admin)
//	@Description	Self-deletion and deletion of admin accounts are refused
//	@Tags			Users
//	@Produce		json
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	types.SuccessResponse
//	@Failure		403	{object}	types.ErrorResponse
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/users/{id} [delete]
func (h *Handler) DeleteUser(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionDeleteUser, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	target, err := h.svc.Get(c.Param("id"))
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := authz.Authorize(identity, authz.ActionDeleteUser, &authz.Resource{TargetUser: target}); err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := h.svc.Delete(identity.ID, target); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
