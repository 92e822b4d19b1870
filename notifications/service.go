// Package notifications implements admin-authored announcements, broadcast
// to all users or targeted at one.
package notifications

import (
	"errors"
	"fmt"

	"github.com/HaianCao/library-management-system/activity"
	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/models"
	"gorm.io/gorm"
)

// Service orchestrates notification mutations.
type Service struct {
	db *gorm.DB
}

// NewService creates a notification service on the given database.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput carries a new announcement. A nil UserID broadcasts to all
// users; otherwise the message is only visible to that user.
type CreateInput struct {
	Title   string
	Content string
	Type    string
	UserID  *string
}

// Create persists an announcement authored by the admin.
func (s *Service) Create(adminID string, in CreateInput) (*models.Notification, error) {
	if in.UserID != nil {
		var target models.User
		if err := s.db.First(&target, "id = ?", *in.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.NotFound("Target user not found")
			}
			return nil, err
		}
	}

	notif := models.Notification{
		Title:       in.Title,
		Content:     in.Content,
		Type:        in.Type,
		CreatedByID: adminID,
		UserID:      in.UserID,
	}
	if notif.Type == "" {
		notif.Type = "announcement"
	}
	if err := s.db.Create(&notif).Error; err != nil {
		return nil, err
	}

	activity.Record(s.db, adminID, "announcement_created", fmt.Sprintf("Created announcement %q", notif.Title), "notification", fmt.Sprint(notif.ID))
	return &notif, nil
}

// ListForUser returns the union of the user's own notifications and all
// broadcast notifications, newest first.
func (s *Service) ListForUser(userID string) ([]models.Notification, error) {
	var items []models.Notification
	err := s.db.Where("user_id = ? OR user_id IS NULL", userID).
		Order("created_at DESC, id DESC").
		Find(&items).Error
	return items, err
}

// Delete removes a notification.
func (s *Service) Delete(adminID string, id uint) error {
	var notif models.Notification
	if err := s.db.First(&notif, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.NotFound("Notification not found")
		}
		return err
	}

	if err := s.db.Delete(&notif).Error; err != nil {
		return err
	}

	activity.Record(s.db, adminID, "notification_deleted", fmt.Sprintf("Deleted notification %q", notif.Title), "notification", fmt.Sprint(id))
	return nil
}
