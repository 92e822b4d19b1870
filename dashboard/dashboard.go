// Package dashboard computes the read-only cross-cutting statistics. It has
// no side effects; figures come from one logical pass over the repositories,
// without a cross-metric consistency guarantee under concurrent writes.
package dashboard

import (
	"github.com/HaianCao/library-management-system/models"
	"gorm.io/gorm"
)

// PopularBook is a catalog entry ranked by how often it has been borrowed.
type PopularBook struct {
	models.Book
	BorrowCount int64 `json:"borrowCount"`
}

// Stats is the dashboard aggregate.
type Stats struct {
	TotalBooks        int64         `json:"totalBooks"`
	TotalUsers        int64         `json:"totalUsers"`
	ActiveBorrowings  int64         `json:"activeBorrowings"`
	OverdueBorrowings int64         `json:"overdueBorrowings"`
	PopularBooks      []PopularBook `json:"popularBooks"`
}

// Collect computes the dashboard figures: total counts, open borrowings by
// status, and the top 5 books by total associated borrowing count.
func Collect(db *gorm.DB) (*Stats, error) {
	var stats Stats

	if err := db.Model(&models.Book{}).Count(&stats.TotalBooks).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Borrowing{}).Where("status = ?", models.BorrowingActive).Count(&stats.ActiveBorrowings).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Borrowing{}).Where("status = ?", models.BorrowingOverdue).Count(&stats.OverdueBorrowings).Error; err != nil {
		return nil, err
	}

	rows, err := db.Model(&models.Borrowing{}).
		Select("book_id, COUNT(*) AS borrow_count").
		Group("book_id").
		Order("borrow_count DESC, book_id ASC").
		Limit(5).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type ranked struct {
		bookID uint
		count  int64
	}
	var ranking []ranked
	for rows.Next() {
		var r ranked
		if err := rows.Scan(&r.bookID, &r.count); err != nil {
			return nil, err
		}
		ranking = append(ranking, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	stats.PopularBooks = make([]PopularBook, 0, len(ranking))
	for _, r := range ranking {
		var book models.Book
		if err := db.First(&book, r.bookID).Error; err != nil {
			// The book may have been deleted after its borrowings closed.
			continue
		}
		stats.PopularBooks = append(stats.PopularBooks, PopularBook{Book: book, BorrowCount: r.count})
	}

	return &stats, nil
}
