package borrowings

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/database"
	"github.com/HaianCao/library-management-system/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return NewService(db), db
}

func seedUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	username := "user-" + id
	user := models.User{ID: id, Username: &username, Email: username + "@example.com", Role: models.RoleUser}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func seedBook(t *testing.T, db *gorm.DB, qty int) models.Book {
	t.Helper()
	book := models.Book{Title: "Dune", Author: "Frank Herbert", ISBN: "9780441013593", Quantity: qty, AvailableQuantity: qty}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book
}

func availableQuantity(t *testing.T, db *gorm.DB, bookID uint) int {
	t.Helper()
	var book models.Book
	if err := db.First(&book, bookID).Error; err != nil {
		t.Fatalf("reload book: %v", err)
	}
	return book.AvailableQuantity
}

func TestCreateDecrementsAvailability(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1")
	book := seedBook(t, db, 2)

	due := time.Now().Add(14 * 24 * time.Hour)
	borrowing, err := svc.Create("u1", book.ID, due)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if borrowing.Status != models.BorrowingActive {
		t.Fatalf("status = %s, want active", borrowing.Status)
	}
	if borrowing.ReturnDate != nil {
		t.Fatal("new borrowing has a return date")
	}
	if borrowing.User.ID != "u1" || borrowing.Book.ID != book.ID {
		t.Fatal("associations not loaded")
	}
	if got := availableQuantity(t, db, book.ID); got != 1 {
		t.Fatalf("available = %d, want 1", got)
	}
}

func TestCreateConflictsWhenNoCopiesLeft(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	book := seedBook(t, db, 1)

	due := time.Now().Add(14 * 24 * time.Hour)
	if _, err := svc.Create("u1", book.ID, due); err != nil {
		t.Fatalf("first borrow: %v", err)
	}

	_, err := svc.Create("u2", book.ID, due)
	if !apperr.IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409, got %v", err)
	}
	if got := availableQuantity(t, db, book.ID); got != 0 {
		t.Fatalf("available = %d, want 0", got)
	}
}

func TestCreateMissingBook(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1")

	_, err := svc.Create("u1", 999, time.Now().Add(time.Hour))
	if !apperr.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestReturnRestoresAvailability(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1")
	book := seedBook(t, db, 3)

	borrowing, err := svc.Create("u1", book.ID, time.Now().Add(14*24*time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	returned, err := svc.Return("u1", borrowing.ID)
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != models.BorrowingReturned {
		t.Fatalf("status = %s, want returned", returned.Status)
	}
	if returned.ReturnDate == nil {
		t.Fatal("return date not set")
	}
	if got := availableQuantity(t, db, book.ID); got != 3 {
		t.Fatalf("available = %d, want 3 after round trip", got)
	}
}

func TestDoubleReturnFailsWithoutDoubleIncrement(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1")
	book := seedBook(t, db, 1)

	borrowing, err := svc.Create("u1", book.ID, time.Now().Add(14*24*time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Return("u1", borrowing.ID); err != nil {
		t.Fatalf("first return: %v", err)
	}

	_, err = svc.Return("u1", borrowing.ID)
	if !apperr.IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409 on second return, got %v", err)
	}
	if got := availableQuantity(t, db, book.ID); got != 1 {
		t.Fatalf("available = %d, want 1 (never above quantity)", got)
	}
}

func TestReturnOverdueBorrowing(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1")
	book := seedBook(t, db, 1)

	borrowing, err := svc.Create("u1", book.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.MarkOverdue("admin-1", borrowing.ID); err != nil {
		t.Fatalf("mark overdue: %v", err)
	}

	// An overdue borrowing can still be returned normally.
	returned, err := svc.Return("u1", borrowing.ID)
	if err != nil {
		t.Fatalf("return overdue: %v", err)
	}
	if returned.Status != models.BorrowingReturned {
		t.Fatalf("status = %s, want returned", returned.Status)
	}
	if got := availableQuantity(t, db, book.ID); got != 1 {
		t.Fatalf("available = %d, want 1", got)
	}
}

func TestMarkOverdueOnlyFromActive(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1")
	book := seedBook(t, db, 1)

	borrowing, err := svc.Create("u1", book.ID, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	marked, err := svc.MarkOverdue("admin-1", borrowing.ID)
	if err != nil {
		t.Fatalf("mark overdue: %v", err)
	}
	if marked.Status != models.BorrowingOverdue {
		t.Fatalf("status = %s, want overdue", marked.Status)
	}
	if got := availableQuantity(t, db, book.ID); got != 0 {
		t.Fatalf("available = %d, inventory must not move on overdue", got)
	}

	// Already overdue: the transition is rejected.
	_, err = svc.MarkOverdue("admin-1", borrowing.ID)
	if !apperr.IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409, got %v", err)
	}

	if _, err := svc.Return("u1", borrowing.ID); err != nil {
		t.Fatalf("return: %v", err)
	}
	_, err = svc.MarkOverdue("admin-1", borrowing.ID)
	if !apperr.IsStatus(err, http.StatusConflict) {
		t.Fatalf("expected 409 on returned borrowing, got %v", err)
	}
}

func TestListFiltersByUserAndStatus(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1")
	seedUser(t, db, "u2")
	book := seedBook(t, db, 5)

	due := time.Now().Add(14 * 24 * time.Hour)
	b1, err := svc.Create("u1", book.ID, due)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create("u1", book.ID, due); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create("u2", book.ID, due); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Return("u1", b1.ID); err != nil {
		t.Fatalf("return: %v", err)
	}

	_, total, err := svc.List(ListFilter{UserID: "u1"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("u1 borrowings = %d, want 2", total)
	}

	items, total, err := svc.List(ListFilter{Status: "active"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 {
		t.Fatalf("active borrowings = %d, want 2", total)
	}
	for _, item := range items {
		if item.Status != models.BorrowingActive {
			t.Fatalf("status filter leaked %s", item.Status)
		}
	}

	_, total, err = svc.List(ListFilter{UserID: "u1", Status: "returned"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 {
		t.Fatalf("u1 returned = %d, want 1", total)
	}

	_, total, err = svc.List(ListFilter{Status: "all"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("all = %d, want 3", total)
	}
}
