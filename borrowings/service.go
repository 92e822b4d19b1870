// Package borrowings implements the lending workflow: creating a borrowing
// against available inventory, returning it, and the overdue transition.
// The availableQuantity check-and-decrement runs as a single conditional
// update inside a transaction, so concurrent borrowings of the last copy
// cannot over-commit the inventory.
package borrowings

import (
	"errors"
	"fmt"
	"time"

	"github.com/HaianCao/library-management-system/activity"
	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/models"
	"gorm.io/gorm"
)

// Service orchestrates borrowing mutations.
type Service struct {
	db *gorm.DB
}

// NewService creates a borrowing service on the given database.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Create borrows one copy of the book for the user. The decrement is
// conditional on availableQuantity > 0: zero rows affected means the last
// copy was taken and the request fails with a conflict.
func (s *Service) Create(userID string, bookID uint, dueDate time.Time) (*models.Borrowing, error) {
	var book models.Book
	if err := s.db.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Book not found")
		}
		return nil, err
	}
	if book.AvailableQuantity <= 0 {
		return nil, apperr.Conflict("Book is not available")
	}

	borrowing := models.Borrowing{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: time.Now(),
		DueDate:    dueDate,
		Status:     models.BorrowingActive,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Book{}).
			Where("id = ? AND available_quantity > 0", bookID).
			Update("available_quantity", gorm.Expr("available_quantity - 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Book is not available")
		}
		return tx.Create(&borrowing).Error
	})
	if err != nil {
		return nil, err
	}

	activity.Record(s.db, userID, "book_borrowed", fmt.Sprintf("Borrowed %q (%s)", book.Title, book.ISBN), "borrowing", fmt.Sprint(borrowing.ID))

	if err := s.db.Preload("User").Preload("Book").First(&borrowing, borrowing.ID).Error; err != nil {
		return nil, err
	}
	return &borrowing, nil
}

// Get loads a borrowing joined with its user and book.
func (s *Service) Get(id uint) (*models.Borrowing, error) {
	var borrowing models.Borrowing
	if err := s.db.Preload("User").Preload("Book").First(&borrowing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("Borrowing not found")
		}
		return nil, err
	}
	return &borrowing, nil
}

// Return marks the borrowing returned and puts the copy back on the shelf.
// The status update is conditional on the borrowing not being returned yet,
// so a second return of the same id fails without touching inventory. The
// increment is guarded by availableQuantity < quantity, keeping the
// invariant 0 <= available <= quantity even against a logic bug upstream.
func (s *Service) Return(actorID string, id uint) (*models.Borrowing, error) {
	borrowing, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Borrowing{}).
			Where("id = ? AND status <> ?", id, models.BorrowingReturned).
			Updates(map[string]interface{}{
				"status":      models.BorrowingReturned,
				"return_date": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperr.Conflict("Borrowing has already been returned")
		}

		return tx.Model(&models.Book{}).
			Where("id = ? AND available_quantity < quantity", borrowing.BookID).
			Update("available_quantity", gorm.Expr("available_quantity + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	activity.Record(s.db, actorID, "book_returned", fmt.Sprintf("Returned %q (%s)", borrowing.Book.Title, borrowing.Book.ISBN), "borrowing", fmt.Sprint(id))

	return s.Get(id)
}

// MarkOverdue transitions an active borrowing to overdue. The copy is still
// physically out, so inventory is untouched.
func (s *Service) MarkOverdue(actorID string, id uint) (*models.Borrowing, error) {
	res := s.db.Model(&models.Borrowing{}).
		Where("id = ? AND status = ?", id, models.BorrowingActive).
		Update("status", models.BorrowingOverdue)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		borrowing, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		return nil, apperr.Conflict(fmt.Sprintf("Borrowing is %s and cannot be marked overdue", borrowing.Status))
	}

	activity.Record(s.db, actorID, "borrowing_overdue", fmt.Sprintf("Borrowing %d marked overdue", id), "borrowing", fmt.Sprint(id))

	return s.Get(id)
}

// ListFilter narrows the borrowing listing.
type ListFilter struct {
	UserID string
	Status string
}

// List returns borrowings newest-first, joined with user and book, with the
// total matching count.
func (s *Service) List(filter ListFilter, limit, offset int) ([]models.Borrowing, int64, error) {
	q := s.db.Model(&models.Borrowing{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Borrowing
	if err := q.Preload("User").Preload("Book").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
