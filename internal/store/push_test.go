package store

import (
	"testing"

	"github.com/SonyCookies/bongwell/internal/database"
)

func setupPushTestDB(t *testing.T) (*PushStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPushStore(db), NewUserStore(db)
}

func TestPushUpsert(t *testing.T) {
	ps, us := setupPushTestDB(t)
	u, _ := us.Create("owner@example.com", "Owner", "h")

	sub, err := ps.Upsert(u.ID, "https://push.example.com/abc", "p1", "a1")
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if sub.Endpoint != "https://push.example.com/abc" || sub.P256dhKey != "p1" {
		t.Errorf("sub = %+v", sub)
	}

	// Same endpoint refreshes keys instead of inserting a second row.
	again, err := ps.Upsert(u.ID, "https://push.example.com/abc", "p2", "a2")
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if again.ID != sub.ID {
		t.Errorf("upsert created a new row: %d != %d", again.ID, sub.ID)
	}
	if again.P256dhKey != "p2" || again.AuthKey != "a2" {
		t.Errorf("keys not refreshed: %+v", again)
	}
}

func TestPushListAdmins(t *testing.T) {
	ps, us := setupPushTestDB(t)

	admin, _ := us.Create("admin@example.com", "Admin", "h")
	us.SetAdmin(admin.ID, true)
	visitor, _ := us.Create("visitor@example.com", "Visitor", "h")

	ps.Upsert(admin.ID, "https://push.example.com/admin", "p", "a")
	ps.Upsert(visitor.ID, "https://push.example.com/visitor", "p", "a")

	subs, err := ps.ListAdmins()
	if err != nil {
		t.Fatalf("list admins: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("len = %d, want 1", len(subs))
	}
	if subs[0].UserID != admin.ID {
		t.Errorf("user_id = %d, want %d", subs[0].UserID, admin.ID)
	}
}

func TestPushDelete(t *testing.T) {
	ps, us := setupPushTestDB(t)
	u, _ := us.Create("owner@example.com", "Owner", "h")
	us.SetAdmin(u.ID, true)

	sub, _ := ps.Upsert(u.ID, "https://push.example.com/abc", "p", "a")
	if err := ps.Delete(sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	subs, _ := ps.ListAdmins()
	if len(subs) != 0 {
		t.Errorf("subscription survived delete")
	}

	sub2, _ := ps.Upsert(u.ID, "https://push.example.com/def", "p", "a")
	if err := ps.DeleteByEndpoint(sub2.Endpoint); err != nil {
		t.Fatalf("delete by endpoint: %v", err)
	}
	subs, _ = ps.ListAdmins()
	if len(subs) != 0 {
		t.Errorf("subscription survived delete by endpoint")
	}
}
