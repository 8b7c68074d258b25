package access

import (
	"testing"

	"github.com/ave4ge/findateammatebot/internal/domain/enums"
)

func TestResolveRole(t *testing.T) {
	svc := NewService([]int64{1, 2, 2, 0}, []int64{2, 3})

	tests := []struct {
		name     string
		userID   int64
		want     enums.Role
		admin    bool
		verifier bool
	}{
		{name: "admin", userID: 1, want: enums.RoleAdmin, admin: true},
		{name: "both", userID: 2, want: enums.RoleAdminVerifier, admin: true, verifier: true},
		{name: "verifier", userID: 3, want: enums.RoleVerifier, verifier: true},
		{name: "user", userID: 4, want: enums.RoleUser},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := svc.ResolveRole(tc.userID); got != tc.want {
				t.Fatalf("unexpected role: got %s want %s", got, tc.want)
			}
			if got := svc.IsAdmin(tc.userID); got != tc.admin {
				t.Fatalf("unexpected is_admin: got %v want %v", got, tc.admin)
			}
			if got := svc.IsVerifier(tc.userID); got != tc.verifier {
				t.Fatalf("unexpected is_verifier: got %v want %v", got, tc.verifier)
			}
		})
	}
}

func TestStaffIDsAreDeduplicated(t *testing.T) {
	svc := NewService([]int64{1, 2, 2}, []int64{2, 3})

	got := svc.StaffIDs()
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("unexpected staff ids: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected staff id at %d: got %d want %d", i, got[i], want[i])
		}
	}
	if len(svc.AdminIDs()) != 2 {
		t.Fatalf("unexpected admin ids: %v", svc.AdminIDs())
	}
}
