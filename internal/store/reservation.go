package store

import (
	"database/sql"
	"fmt"
	"time"

	"reserva/internal/model"
)

// ReservationStore owns the no-overlap invariant: for a given facility, no
// two reservations may share an interior point. Intervals are half-open, so
// a new booking starting exactly when another ends is fine.
type ReservationStore struct {
	db *sql.DB
}

func NewReservationStore(db *sql.DB) *ReservationStore {
	return &ReservationStore{db: db}
}

const reservationCols = `id, user_id, facility_id, start_time, end_time, created_at`

func scanReservation(scanner interface{ Scan(...any) error }) (*model.Reservation, error) {
	var r model.Reservation
	err := scanner.Scan(&r.ID, &r.UserID, &r.FacilityID, &r.StartTime, &r.EndTime, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create books [start, end) on the facility. It returns ErrConflict when the
// interval is empty or inverted, or when any existing reservation on the
// same facility overlaps it. The conflict check and the insert run in one
// transaction; combined with the single-connection pool this makes the
// read-then-write section atomic, so two concurrent overlapping requests
// cannot both pass the check.
func (s *ReservationStore) Create(facilityID, userID int64, start, end time.Time) (*model.Reservation, error) {
	if !start.Before(end) {
		return nil, ErrConflict
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var overlapping int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM reservations
		 WHERE facility_id = ? AND start_time < ? AND end_time > ?`,
		facilityID, end.UTC(), start.UTC(),
	).Scan(&overlapping)
	if err != nil {
		return nil, fmt.Errorf("check overlap: %w", err)
	}
	if overlapping > 0 {
		return nil, ErrConflict
	}

	result, err := tx.Exec(
		`INSERT INTO reservations (user_id, facility_id, start_time, end_time) VALUES (?, ?, ?, ?)`,
		userID, facilityID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *ReservationStore) GetByID(id int64) (*model.Reservation, error) {
	row := s.db.QueryRow(`SELECT `+reservationCols+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation: %w", err)
	}
	return r, nil
}

func (s *ReservationStore) ListByFacility(facilityID int64) ([]model.Reservation, error) {
	rows, err := s.db.Query(
		`SELECT `+reservationCols+` FROM reservations WHERE facility_id = ? ORDER BY start_time`,
		facilityID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func (s *ReservationStore) ListByUser(userID int64) ([]model.Reservation, error) {
	rows, err := s.db.Query(
		`SELECT `+reservationCols+` FROM reservations WHERE user_id = ? ORDER BY start_time`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()
	return collectReservations(rows)
}

func collectReservations(rows *sql.Rows) ([]model.Reservation, error) {
	var reservations []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}

func (s *ReservationStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM reservations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	return nil
}
