package notifications

import (
	"net/http"
	"strconv"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/authz"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the notification endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a notification handler on the given database.
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{svc: NewService(db)}
}

// ListNotifications godoc
//
//	@Summary		List notifications visible to the caller
//	@Tags			Notifications
//	@Produce		json
//	@Success		200	{object}	types.SuccessResponse
//	@Router			/api/notifications [get]
func (h *Handler) ListNotifications(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionListNotifs, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	items, err := h.svc.ListForUser(identity.ID)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// CreateNotification godoc
//
//	@Summary		Create an announcement (admin)
//	@Description	Omit userId to broadcast to all users
//	@Tags			Notifications
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	models.Notification
//	@Failure		403	{object}	types.ErrorResponse
//	@Router			/api/notifications [post]
func (h *Handler) CreateNotification(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionCreateNotif, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	var body struct {
		Title   string  `json:"title" binding:"required"`
		Content string  `json:"content" binding:"required"`
		Type    string  `json:"type"`
		UserID  *string `json:"userId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.Invalid(err.Error()))
		return
	}

	notif, err := h.svc.Create(identity.ID, CreateInput{
		Title:   body.Title,
		Content: body.Content,
		Type:    body.Type,
		UserID:  body.UserID,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, notif)
}

// DeleteNotification godoc
//
//	@Summary		Delete a notification (admin)
//	@Tags			Notifications
//	@Produce		json
//	@Param			id	path	int	true	"Notification ID"
//	@Success		204	"No Content"
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/notifications/{id} [delete]
func (h *Handler) DeleteNotification(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionDeleteNotif, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperr.Respond(c, apperr.Invalid("Invalid notification ID"))
		return
	}

	if err := h.svc.Delete(identity.ID, uint(id)); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
