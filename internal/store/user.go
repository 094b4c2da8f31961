package store

import (
	"database/sql"
	"fmt"
	"time"

	"reserva/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, name, netid, email, password_digest, session_token, session_expiration, update_token, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var sessionToken, updateToken sql.NullString
	err := scanner.Scan(&u.ID, &u.Name, &u.NetID, &u.Email, &u.PasswordDigest,
		&sessionToken, &u.SessionExpiration, &updateToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.SessionToken = sessionToken.String
	u.UpdateToken = updateToken.String
	return &u, nil
}

func (s *UserStore) Create(name, netid, email, passwordDigest, sessionToken string, sessionExpiration time.Time, updateToken string) (*model.User, error) {
	result, err := s.db.Exec(
		`INSERT INTO users (name, netid, email, password_digest, session_token, session_expiration, update_token)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		name, netid, email, passwordDigest, sessionToken, sessionExpiration.UTC(), updateToken,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetBySessionToken(token string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE session_token = ?`, token)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by session token: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByUpdateToken(token string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE update_token = ?`, token)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by update token: %w", err)
	}
	return u, nil
}

// SetSession replaces a user's session token, expiration, and update token
// unconditionally. Used at login, after credentials have been verified.
func (s *UserStore) SetSession(id int64, sessionToken string, sessionExpiration time.Time, updateToken string) error {
	_, err := s.db.Exec(
		`UPDATE users
		 SET session_token = ?, session_expiration = ?, update_token = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		sessionToken, sessionExpiration.UTC(), updateToken, id,
	)
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	return nil
}

// RotateSession replaces the session triple only if the stored update token
// still equals oldUpdateToken. Returns false when the guard fails, which
// means the token was already spent by a concurrent renewal.
func (s *UserStore) RotateSession(id int64, oldUpdateToken, sessionToken string, sessionExpiration time.Time, updateToken string) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE users
		 SET session_token = ?, session_expiration = ?, update_token = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND update_token = ?`,
		sessionToken, sessionExpiration.UTC(), updateToken, id, oldUpdateToken,
	)
	if err != nil {
		return false, fmt.Errorf("rotate session: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n == 1, nil
}

// ClearSession invalidates both tokens and backdates the expiration so any
// outstanding token fails verification. Tokens become NULL in storage to
// keep the UNIQUE indexes satisfied across logged-out users.
func (s *UserStore) ClearSession(id int64, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE users
		 SET session_token = NULL, session_expiration = ?, update_token = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		at.UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Delete removes a user. Fails with ErrInUse while reservations reference
// the user; cancel them first.
func (s *UserStore) Delete(id int64) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM reservations WHERE user_id = ?`, id).Scan(&count); err != nil {
		return fmt.Errorf("count user reservations: %w", err)
	}
	if count > 0 {
		return ErrInUse
	}
	_, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
