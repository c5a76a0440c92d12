package user

import (
	"database/sql"
	"testing"

	"github.com/hafizlab/alfurqan/core/access"
	"github.com/hafizlab/alfurqan/core/errors"
	"github.com/hafizlab/alfurqan/core/sqlite"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := sqlite.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return New(db), db
}

// TestCreateAndAuthenticate verifies registration and password checks.
func TestCreateAndAuthenticate(t *testing.T) {
	store, _ := newTestStore(t)

	created, err := store.Create("fatima", "s3cret", access.User)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Username != "fatima" || created.Role != access.User {
		t.Errorf("created = %+v", created)
	}

	u, err := store.Authenticate("fatima", "s3cret")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if u.ID != created.ID {
		t.Errorf("authenticated wrong account: %d != %d", u.ID, created.ID)
	}

	if _, err := store.Authenticate("fatima", "wrong"); !errors.Is(err, errors.ErrPermissionDenied) {
		t.Errorf("expected permission denied for wrong password, got %v", err)
	}
	if _, err := store.Authenticate("nobody", "s3cret"); !errors.Is(err, errors.ErrPermissionDenied) {
		t.Errorf("expected permission denied for unknown user, got %v", err)
	}
}

// TestCreateValidation verifies username and password rules.
func TestCreateValidation(t *testing.T) {
	store, _ := newTestStore(t)

	if _, err := store.Create("ab", "pw", access.User); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("expected validation error for short username, got %v", err)
	}
	if _, err := store.Create("bad name", "pw", access.User); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("expected validation error for spaces, got %v", err)
	}
	if _, err := store.Create("fatima", "", access.User); !errors.Is(err, errors.ErrValidation) {
		t.Errorf("expected validation error for empty password, got %v", err)
	}

	if _, err := store.Create("fatima", "pw", access.User); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.Create("fatima", "pw2", access.User); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected conflict for duplicate username, got %v", err)
	}
}

// TestSetRole verifies role changes require Admin and parse legacy
// names on the way back out.
func TestSetRole(t *testing.T) {
	store, _ := newTestStore(t)

	admin, err := store.Create("admin", "pw", access.Admin)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	member, err := store.Create("member", "pw", access.User)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := store.SetRole(member.Actor(), member.ID, access.Ulama); !errors.Is(err, errors.ErrPermissionDenied) {
		t.Errorf("expected permission denied for non-admin, got %v", err)
	}

	updated, err := store.SetRole(admin.Actor(), member.ID, access.Ulama)
	if err != nil {
		t.Fatalf("set role failed: %v", err)
	}
	if updated.Role != access.Ulama {
		t.Errorf("role = %s", updated.Role)
	}
}

// TestLastAdminGuard verifies the only Admin cannot demote or delete
// itself under the default policy.
func TestLastAdminGuard(t *testing.T) {
	store, _ := newTestStore(t)

	admin, err := store.Create("admin", "pw", access.Admin)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := store.SetRole(admin.Actor(), admin.ID, access.User); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected conflict demoting last admin, got %v", err)
	}
	if err := store.Delete(admin.Actor(), admin.ID); !errors.Is(err, errors.ErrConflict) {
		t.Errorf("expected conflict deleting last admin, got %v", err)
	}

	// A second admin unblocks the demotion.
	second, err := store.Create("admin2", "pw", access.Admin)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.SetRole(second.Actor(), admin.ID, access.User); err != nil {
		t.Errorf("demotion with two admins failed: %v", err)
	}
}

// TestLastAdminPolicyOverride verifies the policy knob allows lock-out.
func TestLastAdminPolicyOverride(t *testing.T) {
	db, err := sqlite.OpenMemory()
	if err != nil {
		t.Fatalf("failed to open in-memory store: %v", err)
	}
	defer db.Close()
	if err := sqlite.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	store := NewWithPolicy(db, Policy{AllowLastAdminDemotion: true})

	admin, err := store.Create("admin", "pw", access.Admin)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := store.SetRole(admin.Actor(), admin.ID, access.User); err != nil {
		t.Errorf("policy override should allow demotion: %v", err)
	}
}

// TestDeleteCascades verifies deleting a user removes their
// annotations through the schema's foreign keys.
func TestDeleteCascades(t *testing.T) {
	store, db := newTestStore(t)

	admin, err := store.Create("admin", "pw", access.Admin)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	member, err := store.Create("member", "pw", access.User)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO root_notes (user_id, root_word, description)
		VALUES (?, 'صبر', 'patience')`, member.ID); err != nil {
		t.Fatalf("seed note failed: %v", err)
	}

	if err := store.Delete(admin.Actor(), member.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM root_notes`).Scan(&n); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected cascade to remove notes, got %d", n)
	}
}

// TestSeed verifies default provisioning is idempotent.
func TestSeed(t *testing.T) {
	store, _ := newTestStore(t)

	n, err := store.Seed(nil)
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 accounts created, got %d", n)
	}

	n, err = store.Seed(nil)
	if err != nil {
		t.Fatalf("re-seed failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected re-seed to create nothing, got %d", n)
	}

	admin, err := store.ByUsername("admin")
	if err != nil {
		t.Fatalf("load admin failed: %v", err)
	}
	if admin.Role != access.Admin {
		t.Errorf("admin role = %s", admin.Role)
	}
}
