package activity

import (
	"net/http"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/authz"
	"github.com/HaianCao/library-management-system/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the audit log read endpoint.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates an activity log handler on the given database.
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// ListLogs godoc
//
//	@Summary		List activity logs
//	@Description	Paginated audit trail; non-admins only see their own entries
//	@Tags			Activity
//	@Produce		json
//	@Param			page	query		int		false	"Page number"
//	@Param			limit	query		int		false	"Page size"
//	@Param			action	query		string	false	"Action tag filter"
//	@Success		200		{object}	types.SuccessResponse	"Logs and total"
//	@Router			/api/activity-logs [get]
func (h *Handler) ListLogs(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionListLogs, nil); err != nil {
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
		UserID: authz.ScopeUserID(identity, c.Query("userId")),
		Action: c.Query("action"),
	}

	logs, total, err := List(h.db, filter, page.Limit, page.Offset())
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": total})
}
