package users

import (
	"net/http"
	"path/filepath"
	"testing"

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

func seedUser(t *testing.T, db *gorm.DB, id, username string, role models.Role) *models.User {
	t.Helper()
	user := models.User{
		ID:        id,
		Username:  &username,
		Email:     username + "@example.com",
		FirstName: "First-" + username,
		LastName:  "Last-" + username,
		Role:      role,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user %q: %v", username, err)
	}
	return &user
}

func TestGet(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", "alice", models.RoleUser)

	user, err := svc.Get("u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *user.Username != "alice" {
		t.Fatalf("username = %q", *user.Username)
	}

	_, err = svc.Get("ghost")
	if !apperr.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestListSearchAndRoleFilter(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", "alice", models.RoleUser)
	seedUser(t, db, "u2", "bob", models.RoleUser)
	seedUser(t, db, "u3", "carol", models.RoleAdmin)

	_, total, err := svc.List(ListFilter{}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}

	items, total, err := svc.List(ListFilter{Search: "ALI"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 || *items[0].Username != "alice" {
		t.Fatalf("search matched %d rows", total)
	}

	_, total, err = svc.List(ListFilter{Role: "admin"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 1 {
		t.Fatalf("role filter matched %d rows, want 1", total)
	}

	_, total, err = svc.List(ListFilter{Role: "all"}, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 3 {
		t.Fatalf("role 'all' matched %d rows, want 3", total)
	}
}

func TestUpdateRole(t *testing.T) {
	svc, db := newTestService(t)
	seedUser(t, db, "u1", "alice", models.RoleUser)

	user, err := svc.UpdateRole("admin-1", "u1", models.RoleAdmin)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if user.Role != models.RoleAdmin {
		t.Fatalf("role = %s, want admin", user.Role)
	}

	// The audit entry references the target user by uuid.
	var entry models.ActivityLog
	if err := db.First(&entry, "action = ?", "user_role_updated").Error; err != nil {
		t.Fatalf("load audit entry: %v", err)
	}
	if entry.EntityType != "user" || entry.EntityID != "u1" {
		t.Fatalf("audit entity ref = %s/%s, want user/u1", entry.EntityType, entry.EntityID)
	}

	_, err = svc.UpdateRole("admin-1", "u1", "librarian")
	if !apperr.IsStatus(err, http.StatusBadRequest) {
		t.Fatalf("expected 400 for unknown role, got %v", err)
	}

	_, err = svc.UpdateRole("admin-1", "ghost", models.RoleUser)
	if !apperr.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, db := newTestService(t)
	target := seedUser(t, db, "u1", "alice", models.RoleUser)

	if err := svc.Delete("admin-1", target); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := svc.Get("u1")
	if !apperr.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 after delete, got %v", err)
	}

	var entry models.ActivityLog
	if err := db.First(&entry, "action = ?", "user_deleted").Error; err != nil {
		t.Fatalf("load audit entry: %v", err)
	}
	if entry.EntityID != "u1" {
		t.Fatalf("audit entity id = %q, want the deleted user's uuid", entry.EntityID)
	}
}
