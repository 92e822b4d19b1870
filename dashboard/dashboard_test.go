package dashboard

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/HaianCao/library-management-system/database"
	"github.com/HaianCao/library-management-system/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")))
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	return db
}

func seedBook(t *testing.T, db *gorm.DB, title string) models.Book {
	t.Helper()
	book := models.Book{Title: title, Author: "Author", ISBN: "isbn-" + title, Quantity: 10, AvailableQuantity: 10}
	if err := db.Create(&book).Error; err != nil {
		t.Fatalf("seed book: %v", err)
	}
	return book
}

func seedBorrowings(t *testing.T, db *gorm.DB, bookID uint, status models.BorrowingStatus, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		b := models.Borrowing{
			UserID:     "u1",
			BookID:     bookID,
			BorrowDate: time.Now(),
			DueDate:    time.Now().Add(14 * 24 * time.Hour),
			Status:     status,
		}
		if err := db.Create(&b).Error; err != nil {
			t.Fatalf("seed borrowing: %v", err)
		}
	}
}

func TestCollectEmpty(t *testing.T) {
	db := newTestDB(t)

	stats, err := Collect(db)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if stats.TotalBooks != 0 || stats.TotalUsers != 0 || stats.ActiveBorrowings != 0 || stats.OverdueBorrowings != 0 {
		t.Fatalf("empty stats = %+v", stats)
	}
	if len(stats.PopularBooks) != 0 {
		t.Fatalf("popular books = %d, want 0", len(stats.PopularBooks))
	}
}

func TestCollectCountsAndRanking(t *testing.T) {
	db := newTestDB(t)

	username := "alice"
	if err := db.Create(&models.User{ID: "u1", Username: &username, Email: "alice@example.com"}).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	// Seven books so the top-5 cut matters; borrow counts descend with index.
	var books []models.Book
	for i := 0; i < 7; i++ {
		books = append(books, seedBook(t, db, fmt.Sprintf("book-%d", i)))
	}
	for i, book := range books {
		seedBorrowings(t, db, book.ID, models.BorrowingReturned, 7-i)
	}
	seedBorrowings(t, db, books[0].ID, models.BorrowingActive, 2)
	seedBorrowings(t, db, books[1].ID, models.BorrowingOverdue, 1)

	stats, err := Collect(db)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if stats.TotalBooks != 7 {
		t.Fatalf("totalBooks = %d, want 7", stats.TotalBooks)
	}
	if stats.TotalUsers != 1 {
		t.Fatalf("totalUsers = %d, want 1", stats.TotalUsers)
	}
	if stats.ActiveBorrowings != 2 {
		t.Fatalf("activeBorrowings = %d, want 2", stats.ActiveBorrowings)
	}
	if stats.OverdueBorrowings != 1 {
		t.Fatalf("overdueBorrowings = %d, want 1", stats.OverdueBorrowings)
	}

	if len(stats.PopularBooks) != 5 {
		t.Fatalf("popular books = %d, want 5", len(stats.PopularBooks))
	}
	// book-0 has 7 returned + 2 active = 9 total borrowings.
	if stats.PopularBooks[0].Title != "book-0" || stats.PopularBooks[0].BorrowCount != 9 {
		t.Fatalf("top book = %s (%d)", stats.PopularBooks[0].Title, stats.PopularBooks[0].BorrowCount)
	}
	for i := 1; i < len(stats.PopularBooks); i++ {
		if stats.PopularBooks[i].BorrowCount > stats.PopularBooks[i-1].BorrowCount {
			t.Fatal("popular books not sorted by borrow count")
		}
	}
}

func TestCollectSkipsDeletedBooks(t *testing.T) {
	db := newTestDB(t)

	kept := seedBook(t, db, "kept")
	gone := seedBook(t, db, "gone")
	seedBorrowings(t, db, kept.ID, models.BorrowingReturned, 1)
	seedBorrowings(t, db, gone.ID, models.BorrowingReturned, 5)

	if err := db.Delete(&models.Book{}, gone.ID).Error; err != nil {
		t.Fatalf("delete book: %v", err)
	}

	stats, err := Collect(db)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(stats.PopularBooks) != 1 || stats.PopularBooks[0].Title != "kept" {
		t.Fatalf("popular books = %+v, want only the surviving book", stats.PopularBooks)
	}
}
