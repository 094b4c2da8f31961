package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"reserva/internal/database"
)

type reservationFixture struct {
	reservations *ReservationStore
	users        *UserStore
	userID       int64
	facilityID   int64
}

func setupReservationTestDB(t *testing.T) *reservationFixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := NewUserStore(db)
	ls := NewLocationStore(db)
	fs := NewFacilityStore(db)

	u, err := us.Create("Alice", "ab123", "alice@example.com", "digest", "sess-1", time.Now().UTC().Add(24*time.Hour), "upd-1")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	l, err := ls.Create("HNH", "Helen Newman Hall", "163 Cradit Farm Rd", "07:00", "22:00", "09:00", "20:00")
	if err != nil {
		t.Fatalf("create location: %v", err)
	}
	f, err := fs.Create(l.ID, "Pool")
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}

	return &reservationFixture{
		reservations: NewReservationStore(db),
		users:        us,
		userID:       u.ID,
		facilityID:   f.ID,
	}
}

func at(t *testing.T, hour, min int) time.Time {
	t.Helper()
	return time.Date(2026, 3, 14, hour, min, 0, 0, time.UTC)
}

func TestReservationCreate(t *testing.T) {
	fx := setupReservationTestDB(t)

	r, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 10, 0), at(t, 11, 0))
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	if r.ID == 0 {
		t.Error("expected non-zero ID")
	}
	if !r.StartTime.Equal(at(t, 10, 0)) {
		t.Errorf("start = %v, want %v", r.StartTime, at(t, 10, 0))
	}
	if !r.EndTime.Equal(at(t, 11, 0)) {
		t.Errorf("end = %v, want %v", r.EndTime, at(t, 11, 0))
	}
}

func TestReservationCreateInvalidInterval(t *testing.T) {
	fx := setupReservationTestDB(t)

	// Empty interval
	if _, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 10, 0), at(t, 10, 0)); !errors.Is(err, ErrConflict) {
		t.Errorf("empty interval: err = %v, want ErrConflict", err)
	}
	// Inverted interval
	if _, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 11, 0), at(t, 10, 0)); !errors.Is(err, ErrConflict) {
		t.Errorf("inverted interval: err = %v, want ErrConflict", err)
	}
}

func TestReservationOverlap(t *testing.T) {
	fx := setupReservationTestDB(t)

	// Existing booking [10:00, 11:00)
	if _, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 10, 0), at(t, 11, 0)); err != nil {
		t.Fatalf("create base reservation: %v", err)
	}

	tests := []struct {
		name       string
		start, end time.Time
		wantErr    bool
	}{
		{"interior", at(t, 10, 30), at(t, 10, 45), true},
		{"straddles start", at(t, 9, 30), at(t, 10, 30), true},
		{"straddles end", at(t, 10, 30), at(t, 11, 30), true},
		{"encloses existing", at(t, 9, 0), at(t, 12, 0), true},
		{"identical", at(t, 10, 0), at(t, 11, 0), true},
		{"before, touching boundary", at(t, 9, 0), at(t, 10, 0), false},
		{"after, touching boundary", at(t, 11, 0), at(t, 12, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.reservations.Create(fx.facilityID, fx.userID, tt.start, tt.end)
			if tt.wantErr && !errors.Is(err, ErrConflict) {
				t.Errorf("err = %v, want ErrConflict", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("err = %v, want nil", err)
			}
		})
	}
}

func TestReservationOverlapOtherFacility(t *testing.T) {
	fx := setupReservationTestDB(t)

	ls := NewLocationStore(fx.reservations.db)
	fs := NewFacilityStore(fx.reservations.db)
	l, _ := ls.Create("TGC", "Teagle Hall", "512 Campus Rd", "06:00", "23:00", "08:00", "21:00")
	other, err := fs.Create(l.ID, "Squash Court")
	if err != nil {
		t.Fatalf("create facility: %v", err)
	}

	if _, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 10, 0), at(t, 11, 0)); err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	// The same window on a different facility is fine
	if _, err := fx.reservations.Create(other.ID, fx.userID, at(t, 10, 0), at(t, 11, 0)); err != nil {
		t.Errorf("create on other facility: %v", err)
	}
}

// Two concurrent requests for overlapping windows race through the
// check-then-insert section. The store must serialize them so exactly one
// wins; both succeeding would corrupt the no-overlap invariant.
func TestReservationCreateConcurrentOverlap(t *testing.T) {
	fx := setupReservationTestDB(t)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 10, 0), at(t, 11, 0))
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("successes = %d, conflicts = %d; want exactly one of each", successes, conflicts)
	}

	reservations, err := fx.reservations.ListByFacility(fx.facilityID)
	if err != nil {
		t.Fatalf("list reservations: %v", err)
	}
	if len(reservations) != 1 {
		t.Errorf("len = %d, want 1 reservation persisted", len(reservations))
	}
}

func TestReservationListByFacilityOrdered(t *testing.T) {
	fx := setupReservationTestDB(t)

	fx.reservations.Create(fx.facilityID, fx.userID, at(t, 14, 0), at(t, 15, 0))
	fx.reservations.Create(fx.facilityID, fx.userID, at(t, 9, 0), at(t, 10, 0))

	reservations, err := fx.reservations.ListByFacility(fx.facilityID)
	if err != nil {
		t.Fatalf("list reservations: %v", err)
	}
	if len(reservations) != 2 {
		t.Fatalf("len = %d, want 2", len(reservations))
	}
	if !reservations[0].StartTime.Equal(at(t, 9, 0)) {
		t.Errorf("first start = %v, want %v (ordered by start)", reservations[0].StartTime, at(t, 9, 0))
	}
}

func TestReservationDelete(t *testing.T) {
	fx := setupReservationTestDB(t)

	r, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 10, 0), at(t, 11, 0))
	if err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	if err := fx.reservations.Delete(r.ID); err != nil {
		t.Fatalf("delete reservation: %v", err)
	}

	got, err := fx.reservations.GetByID(r.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}

	// The slot is free again
	if _, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 10, 0), at(t, 11, 0)); err != nil {
		t.Errorf("rebook freed slot: %v", err)
	}
}

func TestFacilityDeleteWithReservations(t *testing.T) {
	fx := setupReservationTestDB(t)

	if _, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 10, 0), at(t, 11, 0)); err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	fs := NewFacilityStore(fx.reservations.db)
	if err := fs.Delete(fx.facilityID); !errors.Is(err, ErrInUse) {
		t.Fatalf("delete = %v, want ErrInUse", err)
	}
}

func TestUserDeleteWithReservations(t *testing.T) {
	fx := setupReservationTestDB(t)

	if _, err := fx.reservations.Create(fx.facilityID, fx.userID, at(t, 10, 0), at(t, 11, 0)); err != nil {
		t.Fatalf("create reservation: %v", err)
	}

	if err := fx.users.Delete(fx.userID); !errors.Is(err, ErrInUse) {
		t.Fatalf("delete = %v, want ErrInUse", err)
	}
}
