package models

import (
	"time"
)

// Role represents user roles in the system
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// BorrowingStatus represents the lifecycle state of a borrowing
type BorrowingStatus string

const (
	BorrowingActive   BorrowingStatus = "active"
	BorrowingReturned BorrowingStatus = "returned"
	BorrowingOverdue  BorrowingStatus = "overdue"
)

// User represents a library account. Locally registered users carry a
// username and a password hash; users created through a federated login
// carry neither.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Username     *string   `gorm:"uniqueIndex;size:64" json:"username,omitempty"`
	PasswordHash *string   `gorm:"size:191" json:"-"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	FirstName    string    `gorm:"size:64" json:"firstName"`
	LastName     string    `gorm:"size:64" json:"lastName"`
	Role         Role      `gorm:"size:16;default:user;not null" json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Book represents a catalog entry. AvailableQuantity only moves as a side
// effect of borrowing and returning, never through a direct edit.
type Book struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Title             string    `gorm:"size:255;not null" json:"title"`
	Author            string    `gorm:"size:255;not null" json:"author"`
	ISBN              string    `gorm:"uniqueIndex;size:64;not null" json:"isbn"`
	Genre             string    `gorm:"size:64" json:"genre"`
	Quantity          int       `gorm:"not null" json:"quantity"`
	AvailableQuantity int       `gorm:"not null" json:"availableQuantity"`
	Description       string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Borrowing represents one lending transaction
type Borrowing struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	UserID     string          `gorm:"size:36;not null;index" json:"userId"`
	BookID     uint            `gorm:"not null;index" json:"bookId"`
	BorrowDate time.Time       `gorm:"not null" json:"borrowDate"`
	DueDate    time.Time       `gorm:"not null" json:"dueDate"`
	ReturnDate *time.Time      `json:"returnDate,omitempty"`
	Status     BorrowingStatus `gorm:"size:16;default:active;not null;index" json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book Book `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// ActivityLog is an append-only audit record. Rows are never updated or
// deleted through normal operation.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"size:36;not null;index" json:"userId"`
	Action     string    `gorm:"size:64;not null;index" json:"action"`
	Details    string    `gorm:"size:512" json:"details"`
	EntityType string    `gorm:"size:32" json:"entityType,omitempty"`
	EntityID   string    `gorm:"size:64" json:"entityId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Notification is an admin-authored message. A nil UserID means the message
// is broadcast to all users.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	Type        string    `gorm:"size:32;default:announcement;not null" json:"type"`
	CreatedByID string    `gorm:"size:36;not null" json:"createdById"`
	UserID      *string   `gorm:"size:36;index" json:"userId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Session represents a server-side session record. Federated sessions also
// hold the provider's tokens so the middleware can refresh them in place.
type Session struct {
	ID             string     `gorm:"primaryKey;size:36" json:"id"`
	UserID         string     `gorm:"size:36;not null;index" json:"user_id"`
	Provider       string     `gorm:"size:32;default:local;not null" json:"provider"`
	AccessToken    string     `gorm:"size:2048" json:"-"`
	RefreshToken   string     `gorm:"size:2048" json:"-"`
	TokenExpiresAt *time.Time `json:"-"`
	ExpiresAt      time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt      time.Time  `json:"created_at"`
	LastActivity   time.Time  `gorm:"autoUpdateTime" json:"last_activity"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// TableName overrides the table name for User
func (User) TableName() string {
	return "users"
}

// TableName overrides the table name for Session
func (Session) TableName() string {
	return "sessions"
}

// IsLocal reports whether the user can authenticate with a password.
func (u *User) IsLocal() bool {
	return u.Username != nil && u.PasswordHash != nil
}

// IsAvailable reports whether at least one copy can be borrowed.
func (b *Book) IsAvailable() bool {
	return b.AvailableQuantity > 0
}

// TotalBorrowed is the number of copies currently out on loan.
func (b *Book) TotalBorrowed() int {
	return b.Quantity - b.AvailableQuantity
}
