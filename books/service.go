// Package books implements the catalog admin workflow: upsert-by-ISBN adds,
// field updates, guarded deletes, and the search/filter/paginate listing.
package books

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HaianCao/library-management-system/activity"
	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/models"
	"gorm.io/gorm"
)

// Service orchestrates catalog mutations against the repository.
type Service struct {
	db *gorm.DB
}

// NewService creates a catalog service on the given database.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// View is a catalog item annotated with the derived availability fields.
type View struct {
	models.Book
	IsAvailable   bool `json:"isAvailable"`
	TotalBorrowed int  `json:"totalBorrowed"`
}

func toView(b models.Book) View {
	return View{Book: b, IsAvailable: b.IsAvailable(), TotalBorrowed: b.TotalBorrowed()}
}

// AddInput carries a new catalog entry. A nil Quantity defaults to 1.
type AddInput struct {
	Title       string
	Author      string
	ISBN        string
	Genre       string
	Quantity    *int
	Description string
}

// Add inserts a book, or merges into the existing row when the ISBN is
// already cataloged: quantity and availableQuantity both grow by the
// requested amount and no new row is created.
func (s *Service) Add(actorID string, in AddInput) (*View, error) {
	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if qty < 1 {
		return nil, apperr.Invalid("Quantity must be at least 1")
	}

	var book models.Book
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("isbn = ?", in.ISBN).First(&book).Error
		if err == nil {
			// Merge-on-conflict: top up the existing row.
			return tx.Model(&book).Updates(map[string]interface{}{
				"quantity":           gorm.Expr("quantity + ?", qty),
				"available_quantity": gorm.Expr("available_quantity + ?", qty),
			}).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		book = models.Book{
			Title:             in.Title,
			Author:            in.Author,
			ISBN:              in.ISBN,
			Genre:             in.Genre,
			Quantity:          qty,
			AvailableQuantity: qty,
			Description:       in.Description,
		}
		if err := tx.Create(&book).Error; err != nil {
			// A concurrent add of the same ISBN won the insert; the unique
			// index catches it, and the merge applies to the winner's row.
			if strings.Contains(strings.ToLower(err.Error()), "unique") || strings.Contains(strings.ToLower(err.Error()), "duplicate") {
				if err := tx.Where("isbn = ?", in.ISBN).First(&book).Error; err != nil {
					return err
				}
				return tx.Model(&book).Updates(map[string]interface{}{
					"quantity":           gorm.Expr("quantity + ?", qty),
					"available_quantity": gorm.Expr("available_quantity + ?", qty),
				}).Error
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.First(&book, book.ID).Error; err != nil {
		return nil, err
	}

	activity.Record(s.db, actorID, "book_added", fmt.Sprintf("Added %d copies of %q (%s)", qty, book.Title, book.ISBN), "book", fmt.Sprint(book.ID))

	view := toView(book)
	return &view, nil
}

// UpdateInput carries a partial catalog edit. The ISBN and the available
// quantity are not settable through this path.
type UpdateInput struct {
	Title       *string
	Author      *string
	Genre       *string
	Quantity    *int
	Description *string
}

// Update applies a partial edit. A quantity change shifts availableQuantity
// by the same delta, clamped at zero, so copies out on loan stay accounted.
func (s *Service) Update(actorID string, id uint, in UpdateInput) (*View, error) {
	var book models.Book
	if err := s.db.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Book not found")
		}
		return nil, err
	}

	if in.Title != nil {
		book.Title = *in.Title
	}
	if in.Author != nil {
		book.Author = *in.Author
	}
	if in.Genre != nil {
		book.Genre = *in.Genre
	}
	if in.Description != nil {
		book.Description = *in.Description
	}
	if in.Quantity != nil {
		if *in.Quantity < 0 {
			return nil, apperr.Invalid("Quantity cannot be negative")
		}
		delta := *in.Quantity - book.Quantity
		book.Quantity = *in.Quantity
		book.AvailableQuantity += delta
		if book.AvailableQuantity < 0 {
			book.AvailableQuantity = 0
		}
	}

	if err := s.db.Save(&book).Error; err != nil {
		return nil, err
	}

	activity.Record(s.db, actorID, "book_updated", fmt.Sprintf("Updated %q (%s)", book.Title, book.ISBN), "book", fmt.Sprint(book.ID))

	view := toView(book)
	return &view, nil
}

// Delete removes a catalog entry. Deletion is refused while the book has
// borrowings that are still out, so borrowing rows never dangle.
func (s *Service) Delete(actorID string, id uint) error {
	var book models.Book
	if err := s.db.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Book not found")
		}
		return err
	}

	var open int64
	if err := s.db.Model(&models.Borrowing{}).
		Where("book_id = ? AND status IN ?", id, []models.BorrowingStatus{models.BorrowingActive, models.BorrowingOverdue}).
		Count(&open).Error; err != nil {
		return err
	}
	if open > 0 {
		return apperr.Conflict("Book has borrowings that have not been returned")
	}

	if err := s.db.Delete(&book).Error; err != nil {
		return err
	}

	activity.Record(s.db, actorID, "book_deleted", fmt.Sprintf("Deleted %q (%s)", book.Title, book.ISBN), "book", fmt.Sprint(id))
	return nil
}

// Get returns a single annotated catalog entry.
func (s *Service) Get(id uint) (*View, error) {
	var book models.Book
	if err := s.db.First(&book, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Book not found")
		}
		return nil, err
	}
	view := toView(book)
	return &view, nil
}

// ListFilter narrows the catalog listing. Status and genre accept "all" as
// the no-filter wildcard.
type ListFilter struct {
	Search      string
	SearchField string
	Genre       string
	Status      string
}

// List returns annotated catalog entries with the total matching count.
// Every filter, including availability status, applies before LIMIT/OFFSET
// so pages are always full up to the limit.
func (s *Service) List(filter ListFilter, limit, offset int) ([]View, int64, error) {
	q := s.db.Model(&models.Book{})

	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		switch filter.SearchField {
		case "id":
			// The "id" search field matches the external identifier.
			q = q.Where("LOWER(isbn) LIKE ?", like)
		case "title":
			q = q.Where("LOWER(title) LIKE ?", like)
		case "author":
			q = q.Where("LOWER(author) LIKE ?", like)
		case "genre":
			q = q.Where("LOWER(genre) LIKE ?", like)
		default:
			q = q.Where("LOWER(title) LIKE ? OR LOWER(author) LIKE ? OR LOWER(isbn) LIKE ? OR LOWER(genre) LIKE ?", like, like, like, like)
		}
	}

	if filter.Genre != "" && filter.Genre != "all" {
		q = q.Where("genre = ?", filter.Genre)
	}

	switch filter.Status {
	case "available":
		q = q.Where("available_quantity > 0")
	case "borrowed":
		q = q.Where("available_quantity <= 0")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Book
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}

	views := make([]View, 0, len(items))
	for _, b := range items {
		views = append(views, toView(b))
	}
	return views, total, nil
}

// Genres returns the distinct genres present in the catalog.
func (s *Service) Genres() ([]string, error) {
	var genres []string
	err := s.db.Model(&models.Book{}).
		Where("genre <> ''").
		Distinct("genre").
		Order("genre ASC").
		Pluck("genre", &genres).Error
	return genres, err
}
