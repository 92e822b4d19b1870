package authz

import (
	"net/http"
	"testing"

	"github.com/HaianCao/library-management-system/apperr"
	"github.com/HaianCao/library-management-system/models"
)

func TestAuthorizeRules(t *testing.T) {
	admin := Identity{ID: "admin-1", Username: "admin", Role: models.RoleAdmin}
	member := Identity{ID: "user-1", Username: "alice", Role: models.RoleUser}
	other := Identity{ID: "user-2", Username: "bob", Role: models.RoleUser}

	tests := []struct {
		name       string
		id         Identity
		action     Action
		res        *Resource
		wantStatus int // 0 means allowed
	}{
		{"unauthenticated denied", Identity{}, ActionListBooks, nil, http.StatusUnauthorized},
		{"member lists books", member, ActionListBooks, nil, 0},
		{"member cannot create book", member, ActionCreateBook, nil, http.StatusForbidden},
		{"admin creates book", admin, ActionCreateBook, nil, 0},
		{"member cannot mark overdue", member, ActionMarkOverdue, nil, http.StatusForbidden},
		{"member borrows", member, ActionBorrowBook, nil, 0},
		{"member returns own borrowing", member, ActionReturnBook, &Resource{OwnerID: member.ID}, 0},
		{"member cannot return another's borrowing", other, ActionReturnBook, &Resource{OwnerID: member.ID}, http.StatusForbidden},
		{"admin returns any borrowing", admin, ActionReturnBook, &Resource{OwnerID: member.ID}, 0},
		{"member cannot list users", member, ActionListUsers, nil, http.StatusForbidden},
		{"admin pre-load delete check passes", admin, ActionDeleteUser, nil, 0},
		{"member cannot delete users at all", member, ActionDeleteUser, nil, http.StatusForbidden},
		{"admin deletes a regular user", admin, ActionDeleteUser, &Resource{TargetUser: &models.User{ID: other.ID, Role: models.RoleUser}}, 0},
		{"admin cannot delete self", admin, ActionDeleteUser, &Resource{TargetUser: &models.User{ID: admin.ID, Role: models.RoleAdmin}}, http.StatusForbidden},
		{"admin cannot delete another admin", admin, ActionDeleteUser, &Resource{TargetUser: &models.User{ID: "admin-2", Role: models.RoleAdmin}}, http.StatusForbidden},
		{"member cannot create notification", member, ActionCreateNotif, nil, http.StatusForbidden},
		{"member lists own notifications", member, ActionListNotifs, nil, 0},
		{"member views dashboard", member, ActionViewStats, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.id, tt.action, tt.res)
			if tt.wantStatus == 0 {
				if err != nil {
					t.Fatalf("expected allow, got %v", err)
				}
				return
			}
			if !apperr.IsStatus(err, tt.wantStatus) {
				t.Fatalf("expected status %d, got %v", tt.wantStatus, err)
			}
		})
	}
}

func TestScopeUserID(t *testing.T) {
	admin := Identity{ID: "admin-1", Role: models.RoleAdmin}
	member := Identity{ID: "user-1", Role: models.RoleUser}

	if got := ScopeUserID(admin, "user-9"); got != "user-9" {
		t.Fatalf("admin scope = %q, want user-9", got)
	}
	if got := ScopeUserID(admin, ""); got != "" {
		t.Fatalf("admin unfiltered scope = %q, want empty", got)
	}
	if got := ScopeUserID(member, "user-9"); got != member.ID {
		t.Fatalf("member scope = %q, want own id", got)
	}
	if got := ScopeUserID(member, ""); got != member.ID {
		t.Fatalf("member default scope = %q, want own id", got)
	}
}
