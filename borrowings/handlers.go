package borrowings

import (
	"net/http"
	"strconv"
	"time"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/authz"
	"github.com/HaianCao/library-management-system/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the borrowing endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a borrowing handler on the given database.
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{svc: NewService(db)}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperr.Respond(c, apperr.Invalid("Invalid borrowing ID"))
		return 0, false
	}
	return uint(id), true
}

// parseDueDate accepts either a date or a full timestamp.
func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// ListBorrowings godoc
//
//	@Summary		List borrowings
//	@Description	Newest first; non-admins only see their own
//	@Tags			Borrowings
//	@Produce		json
//	@Param			status	query		string	false	"active|returned|overdue|all"
//	@Param			page	query		int		false	"Page number"
//	@Param			limit	query		int		false	"Page size"
//	@Success		200		{object}	types.SuccessResponse	"Borrowings and total"
//	@Router			/api/borrowings [get]
func (h *Handler) ListBorrowings(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionListBorrows, nil); err != nil {
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
		Status: c.Query("status"),
	}

	items, total, err := h.svc.List(filter, page.Limit, page.Offset())
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"borrowings": items, "total": total})
}

// CreateBorrowing godoc
//
//	@Summary		Borrow a book
//	@Tags			Borrowings
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	models.Borrowing
//	@Failure		404	{object}	types.ErrorResponse	"Book not found"
//	@Failure		409	{object}	types.ErrorResponse	"No available copies"
//	@Router			/api/borrowings [post]
func (h *Handler) CreateBorrowing(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionBorrowBook, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	var body struct {
		BookID  uint   `json:"bookId" binding:"required"`
		DueDate string `json:"dueDate" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.Invalid("bookId and dueDate are required"))
		return
	}

	dueDate, err := parseDueDate(body.DueDate)
	if err != nil {
		apperr.Respond(c, apperr.InvalidFields("Validation failed", map[string]string{
			"dueDate": "Must be an RFC 3339 timestamp or YYYY-MM-DD date",
		}))
		return
	}

	borrowing, err := h.svc.Create(identity.ID, body.BookID, dueDate)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, borrowing)
}

// ReturnBorrowing godoc
//
//	@Summary		Return a borrowed book
//	@Description	Allowed for the borrowing's owner or an admin
//	@Tags			Borrowings
//	@Produce		json
//	@Param			id	path		int	true	"Borrowing ID"
//	@Success		200	{object}	models.Borrowing
//	@Failure		403	{object}	types.ErrorResponse
//	@Failure		404	{object}	types.ErrorResponse
//	@Failure		409	{object}	types.ErrorResponse	"Already returned"
//	@Router			/api/borrowings/{id}/return [put]
func (h *Handler) ReturnBorrowing(c *gin.Context) {
	identity := authz.CurrentIdentity(c)

	id, ok := parseID(c)
	if !ok {
		return
	}

	borrowing, err := h.svc.Get(id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	if err := authz.Authorize(identity, authz.ActionReturnBook, &authz.Resource{OwnerID: borrowing.UserID}); err != nil {
		apperr.Respond(c, err)
		return
	}

	updated, err := h.svc.Return(identity.ID, id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// MarkOverdue godoc
//
//	@Summary		Mark a borrowing overdue (admin)
//	@Tags			Borrowings
//	@Produce		json
//	@Param			id	path		int	true	"Borrowing ID"
//	@Success		200	{object}	models.Borrowing
//	@Failure		404	{object}	types.ErrorResponse
//	@Failure		409	{object}	types.ErrorResponse
//	@Router			/api/borrowings/{id}/overdue [put]
func (h *Handler) MarkOverdue(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionMarkOverdue, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	updated, err := h.svc.MarkOverdue(identity.ID, id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
