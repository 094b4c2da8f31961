package store

import (
	"testing"
	"time"

	"reserva/internal/database"
)

func setupUserTestDB(t *testing.T) *UserStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewUserStore(db)
}

func createTestUser(t *testing.T, us *UserStore, email, sessionToken, updateToken string) *userFixture {
	t.Helper()
	u, err := us.Create("Alice", "ab123", email, "digest", sessionToken, time.Now().UTC().Add(24*time.Hour), updateToken)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return &userFixture{us: us, id: u.ID}
}

type userFixture struct {
	us *UserStore
	id int64
}

func TestUserCreate(t *testing.T) {
	us := setupUserTestDB(t)

	exp := time.Now().UTC().Add(24 * time.Hour)
	u, err := us.Create("Alice", "ab123", "alice@example.com", "digest", "sess-1", exp, "upd-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if u.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if u.Email != "alice@example.com" {
		t.Errorf("email = %q, want %q", u.Email, "alice@example.com")
	}
	if u.NetID != "ab123" {
		t.Errorf("netid = %q, want %q", u.NetID, "ab123")
	}
	if u.SessionToken != "sess-1" {
		t.Errorf("session token = %q, want %q", u.SessionToken, "sess-1")
	}
	if u.UpdateToken != "upd-1" {
		t.Errorf("update token = %q, want %q", u.UpdateToken, "upd-1")
	}
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	us := setupUserTestDB(t)

	exp := time.Now().UTC().Add(24 * time.Hour)
	if _, err := us.Create("Alice", "ab123", "alice@example.com", "digest", "sess-1", exp, "upd-1"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := us.Create("Alice2", "ab124", "alice@example.com", "digest", "sess-2", exp, "upd-2"); err == nil {
		t.Fatal("expected error for duplicate email, got nil")
	}
}

func TestUserGetByEmail(t *testing.T) {
	us := setupUserTestDB(t)
	createTestUser(t, us, "alice@example.com", "sess-1", "upd-1")

	u, err := us.GetByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u == nil {
		t.Fatal("expected user, got nil")
	}

	u, err = us.GetByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u != nil {
		t.Error("expected nil for nonexistent email")
	}
}

func TestUserGetBySessionToken(t *testing.T) {
	us := setupUserTestDB(t)
	f := createTestUser(t, us, "alice@example.com", "sess-1", "upd-1")

	u, err := us.GetBySessionToken("sess-1")
	if err != nil {
		t.Fatalf("get by session token: %v", err)
	}
	if u == nil || u.ID != f.id {
		t.Fatalf("expected user %d, got %+v", f.id, u)
	}

	u, err = us.GetBySessionToken("wrong")
	if err != nil {
		t.Fatalf("get by session token: %v", err)
	}
	if u != nil {
		t.Error("expected nil for unknown token")
	}
}

func TestUserGetByUpdateToken(t *testing.T) {
	us := setupUserTestDB(t)
	f := createTestUser(t, us, "alice@example.com", "sess-1", "upd-1")

	u, err := us.GetByUpdateToken("upd-1")
	if err != nil {
		t.Fatalf("get by update token: %v", err)
	}
	if u == nil || u.ID != f.id {
		t.Fatalf("expected user %d, got %+v", f.id, u)
	}
}

func TestUserSetSession(t *testing.T) {
	us := setupUserTestDB(t)
	f := createTestUser(t, us, "alice@example.com", "sess-1", "upd-1")

	exp := time.Now().UTC().Add(24 * time.Hour)
	if err := us.SetSession(f.id, "sess-2", exp, "upd-2"); err != nil {
		t.Fatalf("set session: %v", err)
	}

	u, err := us.GetByID(f.id)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u.SessionToken != "sess-2" {
		t.Errorf("session token = %q, want %q", u.SessionToken, "sess-2")
	}
	if u.UpdateToken != "upd-2" {
		t.Errorf("update token = %q, want %q", u.UpdateToken, "upd-2")
	}
}

func TestUserRotateSessionGuard(t *testing.T) {
	us := setupUserTestDB(t)
	f := createTestUser(t, us, "alice@example.com", "sess-1", "upd-1")

	exp := time.Now().UTC().Add(24 * time.Hour)
	ok, err := us.RotateSession(f.id, "upd-1", "sess-2", exp, "upd-2")
	if err != nil {
		t.Fatalf("rotate session: %v", err)
	}
	if !ok {
		t.Fatal("expected rotation with matching guard to succeed")
	}

	// Replaying the spent token must not rotate again
	ok, err = us.RotateSession(f.id, "upd-1", "sess-3", exp, "upd-3")
	if err != nil {
		t.Fatalf("rotate session replay: %v", err)
	}
	if ok {
		t.Error("expected rotation with spent guard to fail")
	}

	u, _ := us.GetByID(f.id)
	if u.SessionToken != "sess-2" {
		t.Errorf("session token = %q, want %q after failed replay", u.SessionToken, "sess-2")
	}
}

func TestUserClearSession(t *testing.T) {
	us := setupUserTestDB(t)
	f := createTestUser(t, us, "alice@example.com", "sess-1", "upd-1")

	if err := us.ClearSession(f.id, time.Now().UTC()); err != nil {
		t.Fatalf("clear session: %v", err)
	}

	u, err := us.GetByID(f.id)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if u.SessionToken != "" {
		t.Errorf("session token = %q, want empty", u.SessionToken)
	}
	if u.UpdateToken != "" {
		t.Errorf("update token = %q, want empty", u.UpdateToken)
	}

	// Cleared tokens must never resolve to the user
	got, err := us.GetBySessionToken("")
	if err != nil {
		t.Fatalf("get by empty token: %v", err)
	}
	if got != nil {
		t.Error("expected nil for empty session token lookup")
	}
}

func TestUserClearSessionManyUsers(t *testing.T) {
	us := setupUserTestDB(t)
	a := createTestUser(t, us, "alice@example.com", "sess-a", "upd-a")
	b := createTestUser(t, us, "bob@example.com", "sess-b", "upd-b")

	// Tokens are stored as NULL when cleared, so the UNIQUE indexes must
	// tolerate any number of logged-out users.
	if err := us.ClearSession(a.id, time.Now().UTC()); err != nil {
		t.Fatalf("clear session a: %v", err)
	}
	if err := us.ClearSession(b.id, time.Now().UTC()); err != nil {
		t.Fatalf("clear session b: %v", err)
	}
}

func TestUserDelete(t *testing.T) {
	us := setupUserTestDB(t)
	f := createTestUser(t, us, "alice@example.com", "sess-1", "upd-1")

	if err := us.Delete(f.id); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	u, err := us.GetByID(f.id)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if u != nil {
		t.Error("expected nil after delete")
	}
}
