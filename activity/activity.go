// Package activity provides the append-only audit trail. One entry is
// recorded per successful mutating action, after the mutation succeeds.
package activity

import (
	"log"

	"github.com/HaianCao/library-management-system/models"
	"gorm.io/gorm"
)

// Record appends an audit entry. The entity id is a string so it can carry
// both numeric catalog ids and user uuids. A failed append is logged and
// swallowed: the mutation it describes has already succeeded and is not
// rolled back for the sake of its audit row.
func Record(db *gorm.DB, userID, action, details, entityType, entityID string) {
	entry := models.ActivityLog{
		UserID:     userID,
		Action:     action,
		Details:    details,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("Failed to record activity %q for user %s: %v", action, userID, err)
	}
}

// ListFilter narrows the audit listing.
type ListFilter struct {
	UserID string
	Action string
}

// List returns audit entries newest-first with the total matching count.
func List(db *gorm.DB, filter ListFilter, limit, offset int) ([]models.ActivityLog, int64, error) {
	q := db.Model(&models.ActivityLog{})
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var logs []models.ActivityLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
