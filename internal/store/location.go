package store

import (
	"database/sql"
	"fmt"

	"reserva/internal/model"
)

type LocationStore struct {
	db *sql.DB
}

func NewLocationStore(db *sql.DB) *LocationStore {
	return &LocationStore{db: db}
}

const locationCols = `id, code, name, address, weekday_open, weekday_close, weekend_open, weekend_close, created_at`

func scanLocation(scanner interface{ Scan(...any) error }) (*model.Location, error) {
	var l model.Location
	err := scanner.Scan(&l.ID, &l.Code, &l.Name, &l.Address,
		&l.WeekdayOpen, &l.WeekdayClose, &l.WeekendOpen, &l.WeekendClose, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *LocationStore) Create(code, name, address, weekdayOpen, weekdayClose, weekendOpen, weekendClose string) (*model.Location, error) {
	result, err := s.db.Exec(
		`INSERT INTO locations (code, name, address, weekday_open, weekday_close, weekend_open, weekend_close)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		code, name, address, weekdayOpen, weekdayClose, weekendOpen, weekendClose,
	)
	if err != nil {
		return nil, fmt.Errorf("insert location: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *LocationStore) GetByID(id int64) (*model.Location, error) {
	row := s.db.QueryRow(`SELECT `+locationCols+` FROM locations WHERE id = ?`, id)
	l, err := scanLocation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get location: %w", err)
	}
	return l, nil
}

func (s *LocationStore) List() ([]model.Location, error) {
	rows, err := s.db.Query(`SELECT ` + locationCols + ` FROM locations ORDER BY code, name`)
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		l, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		locations = append(locations, *l)
	}
	return locations, rows.Err()
}

// Delete removes a location. Fails with ErrInUse while facilities still
// belong to it.
func (s *LocationStore) Delete(id int64) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM facilities WHERE location_id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("count location facilities: %w", err)
	}
	if count > 0 {
		return ErrInUse
	}
	_, err := s.db.Exec(`DELETE FROM locations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}
