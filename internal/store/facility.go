package store

import (
	"database/sql"
	"fmt"

	"reserva/internal/model"
)

type FacilityStore struct {
	db *sql.DB
}

func NewFacilityStore(db *sql.DB) *FacilityStore {
	return &FacilityStore{db: db}
}

const facilityCols = `id, name, location_id, created_at`

func scanFacility(scanner interface{ Scan(...any) error }) (*model.Facility, error) {
	var f model.Facility
	err := scanner.Scan(&f.ID, &f.Name, &f.LocationID, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *FacilityStore) Create(locationID int64, name string) (*model.Facility, error) {
	result, err := s.db.Exec(
		`INSERT INTO facilities (name, location_id) VALUES (?, ?)`,
		name, locationID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert facility: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *FacilityStore) GetByID(id int64) (*model.Facility, error) {
	row := s.db.QueryRow(`SELECT `+facilityCols+` FROM facilities WHERE id = ?`, id)
	f, err := scanFacility(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get facility: %w", err)
	}
	return f, nil
}

// Get returns the facility only if it belongs to the given location.
func (s *FacilityStore) Get(locationID, id int64) (*model.Facility, error) {
	row := s.db.QueryRow(`SELECT `+facilityCols+` FROM facilities WHERE id = ? AND location_id = ?`, id, locationID)
	f, err := scanFacility(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get facility: %w", err)
	}
	return f, nil
}

func (s *FacilityStore) ListByLocation(locationID int64) ([]model.Facility, error) {
	rows, err := s.db.Query(`SELECT `+facilityCols+` FROM facilities WHERE location_id = ? ORDER BY name`, locationID)
	if err != nil {
		return nil, fmt.Errorf("query facilities: %w", err)
	}
	defer rows.Close()

	var facilities []model.Facility
	for rows.Next() {
		f, err := scanFacility(rows)
		if err != nil {
			return nil, fmt.Errorf("scan facility: %w", err)
		}
		facilities = append(facilities, *f)
	}
	return facilities, rows.Err()
}

// Delete removes a facility. Fails with ErrInUse while reservations exist
// for it.
func (s *FacilityStore) Delete(id int64) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM reservations WHERE facility_id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("count facility reservations: %w", err)
	}
	if count > 0 {
		return ErrInUse
	}
	_, err := s.db.Exec(`DELETE FROM facilities WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete facility: %w", err)
	}
	return nil
}
