// Package users implements admin-side account management.
package users

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HaianCao/library-management-system/activity"
	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/models"
	"gorm.io/gorm"
)

// Service orchestrates user-account mutations.
type Service struct {
	db *gorm.DB
}

// NewService creates a user management service on the given database.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Get loads a user by id.
func (s *Service) Get(id string) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, err
	}
	return &user, nil
}

// ListFilter narrows the user listing.
type ListFilter struct {
	Search string
	Role   string
}

// List returns users with the total matching count. Search matches username,
// email and names case-insensitively.
func (s *Service) List(filter ListFilter, limit, offset int) ([]models.User, int64, error) {
	q := s.db.Model(&models.User{})

	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ?", like, like, like, like)
	}
	if filter.Role != "" && filter.Role != "all" {
		q = q.Where("role = ?", filter.Role)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.User
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateRole changes a user's role.
func (s *Service) UpdateRole(actorID, id string, role models.Role) (*models.User, error) {
	if role != models.RoleAdmin && role != models.RoleUser {
		return nil, apperr.Invalid("Role must be 'admin' or 'user'")
	}

	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(user).Update("role", role).Error; err != nil {
		return nil, err
	}
	user.Role = role

	activity.Record(s.db, actorID, "user_role_updated", fmt.Sprintf("Changed role of user %s to %s", id, role), "user", id)
	return user, nil
}

// Delete removes a user account. The self-protection and admin-protection
// rules are enforced by the authz guard before this runs.
func (s *Service) Delete(actorID string, user *models.User) error {
	if err := s.db.Delete(user).Error; err != nil {
		return err
	}
	activity.Record(s.db, actorID, "user_deleted", fmt.Sprintf("Deleted user %s (%s)", user.ID, user.Email), "user", user.ID)
	return nil
}
