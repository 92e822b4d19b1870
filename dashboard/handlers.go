package dashboard

import (
	"net/http"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/authz"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the dashboard endpoint.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a dashboard handler on the given database.
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// GetStats godoc
//
//	@Summary		Dashboard statistics
//	@Tags			Dashboard
//	@Produce		json
//	@Success		200	{object}	Stats
//	@Router			/api/dashboard/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionViewStats, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	stats, err := Collect(h.db)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
