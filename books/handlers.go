package books

import (
	"net/http"
	"strconv"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/authz"
	"github.com/HaianCao/library-management-system/types"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler serves the catalog endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a catalog handler on the given database.
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{svc: NewService(db)}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperr.Respond(c, apperr.Invalid("Invalid book ID"))
		return 0, false
	}
	return uint(id), true
}

// ListBooks godoc
//
//	@Summary		List catalog entries
//	@Description	Search, filter and paginate the catalog
//	@Tags			Books
//	@Produce		json
//	@Param			search		query		string	false	"Substring search term"
//	@Param			searchField	query		string	false	"id|title|author|genre (default: all)"
//	@Param			genre		query		string	false	"Exact genre, 'all' for no filter"
//	@Param			status		query		string	false	"available|borrowed|all"
//	@Param			page		query		int		false	"Page number"
//	@Param			limit		query		int		false	"Page size"
//	@Success		200			{object}	types.SuccessResponse	"Books and total"
//	@Router			/api/books [get]
func (h *Handler) ListBooks(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionListBooks, nil); err != nil {
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
		Search:      c.Query("search"),
		SearchField: c.Query("searchField"),
		Genre:       c.Query("genre"),
		Status:      c.Query("status"),
	}

	items, total, err := h.svc.List(filter, page.Limit, page.Offset())
	if err != nil {
		apperr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"books": items, "total": total})
}

// GetBook godoc
//
//	@Summary		Get a catalog entry
//	@Tags			Books
//	@Produce		json
//	@Param			id	path		int	true	"Book ID"
//	@Success		200	{object}	View
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/books/{id} [get]
func (h *Handler) GetBook(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionListBooks, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	book, err := h.svc.Get(id)
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// ListGenres godoc
//
//	@Summary		List distinct catalog genres
//	@Tags			Books
//	@Produce		json
//	@Success		200	{object}	types.SuccessResponse
//	@Router			/api/books/genres [get]
func (h *Handler) ListGenres(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionListBooks, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	genres, err := h.svc.Genres()
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"genres": genres})
}

// CreateBook godoc
//
//	@Summary		Add a book (admin)
//	@Description	Upserts by ISBN: a repeated identifier tops up quantities instead of creating a duplicate row
//	@Tags			Books
//	@Accept			json
//	@Produce		json
//	@Success		201	{object}	View	"Created or merged book"
//	@Failure		400	{object}	types.ErrorResponse
//	@Failure		403	{object}	types.ErrorResponse
//	@Router			/api/books [post]
func (h *Handler) CreateBook(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionCreateBook, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	var body struct {
		Title       string `json:"title" binding:"required"`
		Author      string `json:"author" binding:"required"`
		ISBN        string `json:"isbn" binding:"required"`
		Genre       string `json:"genre"`
		Quantity    *int   `json:"quantity"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.Invalid(err.Error()))
		return
	}

	book, err := h.svc.Add(identity.ID, AddInput{
		Title:       body.Title,
		Author:      body.Author,
		ISBN:        body.ISBN,
		Genre:       body.Genre,
		Quantity:    body.Quantity,
		Description: body.Description,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, book)
}

// UpdateBook godoc
//
//	@Summary		Update a book (admin)
//	@Description	Partial edit; the ISBN and availableQuantity cannot be changed here
//	@Tags			Books
//	@Accept			json
//	@Produce		json
//	@Param			id	path		int	true	"Book ID"
//	@Success		200	{object}	View
//	@Failure		404	{object}	types.ErrorResponse
//	@Router			/api/books/{id} [put]
func (h *Handler) UpdateBook(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionUpdateBook, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	var body struct {
		Title       *string `json:"title"`
		Author      *string `json:"author"`
		Genre       *string `json:"genre"`
		Quantity    *int    `json:"quantity"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apperr.Respond(c, apperr.Invalid(err.Error()))
		return
	}

	book, err := h.svc.Update(identity.ID, id, UpdateInput{
		Title:       body.Title,
		Author:      body.Author,
		Genre:       body.Genre,
		Quantity:    body.Quantity,
		Description: body.Description,
	})
	if err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook godoc
//
//	@Summary		Delete a book (admin)
//	@Description	Refused while the book has borrowings that are still out
//	@Tags			Books
//	@Produce		json
//	@Param			id	path	int	true	"Book ID"
//	@Success		204	"No Content"
//	@Failure		404	{object}	types.ErrorResponse
//	@Failure		409	{object}	types.ErrorResponse
//	@Router			/api/books/{id} [delete]
func (h *Handler) DeleteBook(c *gin.Context) {
	identity := authz.CurrentIdentity(c)
	if err := authz.Authorize(identity, authz.ActionDeleteBook, nil); err != nil {
		apperr.Respond(c, err)
		return
	}

	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(identity.ID, id); err != nil {
		apperr.Respond(c, err)
		return
	}
	c.JSON(http.StatusNoContent, nil)
}
