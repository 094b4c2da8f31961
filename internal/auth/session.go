package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"reserva/internal/model"
	"reserva/internal/store"
)

// SessionTTL is how long a session token stays valid after issue.
const SessionTTL = 24 * time.Hour

var (
	// ErrEmailTaken is returned by Register for a duplicate email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password,
	// so callers cannot tell which half failed.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken covers unknown, expired, and already-spent tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// SessionManager owns password verification and the two-token session
// lifecycle. All token fields on a User are mutated through it, never
// directly.
type SessionManager struct {
	users *store.UserStore
	cost  int
}

// NewSessionManager creates a manager hashing passwords at the given bcrypt
// cost. Costs outside bcrypt's valid range fall back to the default.
func NewSessionManager(users *store.UserStore, bcryptCost int) *SessionManager {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &SessionManager{users: users, cost: bcryptCost}
}

// Register creates a user with a bcrypt password digest and a freshly issued
// session. Fails with ErrEmailTaken when the email is already registered.
func (m *SessionManager) Register(name, netid, email, password string) (*model.User, error) {
	existing, err := m.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), m.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	sessionToken, err := newToken()
	if err != nil {
		return nil, err
	}
	updateToken, err := newToken()
	if err != nil {
		return nil, err
	}

	return m.users.Create(name, netid, email, string(digest),
		sessionToken, time.Now().UTC().Add(SessionTTL), updateToken)
}

// VerifyCredentials checks the password against the stored digest. bcrypt's
// comparison is constant-time; the plaintext is never compared directly.
func (m *SessionManager) VerifyCredentials(email, password string) (*model.User, error) {
	u, err := m.users.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordDigest), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// Login verifies credentials and issues a fresh session, replacing whatever
// tokens the user held before.
func (m *SessionManager) Login(email, password string) (*model.User, error) {
	u, err := m.VerifyCredentials(email, password)
	if err != nil {
		return nil, err
	}

	sessionToken, err := newToken()
	if err != nil {
		return nil, err
	}
	updateToken, err := newToken()
	if err != nil {
		return nil, err
	}
	if err := m.users.SetSession(u.ID, sessionToken, time.Now().UTC().Add(SessionTTL), updateToken); err != nil {
		return nil, err
	}
	return m.users.GetByID(u.ID)
}

// Renew exchanges an update token for a fresh session. The replacement is
// guarded on the old token, so each update token works exactly once: a
// replayed token finds the guard already gone and fails.
func (m *SessionManager) Renew(updateToken string) (*model.User, error) {
	if updateToken == "" {
		return nil, ErrInvalidToken
	}
	u, err := m.users.GetByUpdateToken(updateToken)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidToken
	}

	sessionToken, err := newToken()
	if err != nil {
		return nil, err
	}
	nextUpdateToken, err := newToken()
	if err != nil {
		return nil, err
	}

	rotated, err := m.users.RotateSession(u.ID, updateToken,
		sessionToken, time.Now().UTC().Add(SessionTTL), nextUpdateToken)
	if err != nil {
		return nil, err
	}
	if !rotated {
		return nil, ErrInvalidToken
	}
	return m.users.GetByID(u.ID)
}

// VerifySessionToken reports whether token is the user's current session
// token and the session has not expired. A cleared token never matches, and
// a matching token past its expiration is still invalid.
func (m *SessionManager) VerifySessionToken(u *model.User, token string) bool {
	if token == "" || u.SessionToken == "" {
		return false
	}
	return token == u.SessionToken && time.Now().UTC().Before(u.SessionExpiration)
}

// Authorize resolves a session token to its user, or ErrInvalidToken.
func (m *SessionManager) Authorize(token string) (*model.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	u, err := m.users.GetBySessionToken(token)
	if err != nil {
		return nil, err
	}
	if u == nil || !m.VerifySessionToken(u, token) {
		return nil, ErrInvalidToken
	}
	return u, nil
}

// Logout invalidates the user's session and update tokens immediately.
func (m *SessionManager) Logout(userID int64) error {
	return m.users.ClearSession(userID, time.Now().UTC())
}

// newToken returns a 32-byte crypto-random token, hex-encoded so it is
// URL-safe and carries no structure. Uniqueness across users is enforced by
// the UNIQUE indexes on the token columns.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
