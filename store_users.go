package brctc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted at sign-up.
const MinPasswordLength = 8

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash.
func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CreateUser registers an account with a profile and the user role.
func (s *Store) CreateUser(ctx context.Context, email, password, fullName string) (User, error) {
	email = NormalizeEmail(email)
	fullName = strings.TrimSpace(fullName)
	errs := FieldErrors{}
	if email == "" || !strings.Contains(email, "@") {
		errs.Add("email", "Enter a valid email address.")
	}
	if len(password) < MinPasswordLength {
		errs.Add("password", fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}
	if fullName == "" {
		errs.Add("full_name", "This field is required.")
	}
	if !errs.Empty() {
		return User{}, errs
	}

	hash, err := HashPassword(password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&exists); err != nil {
		return User{}, err
	}
	if exists > 0 {
		return User{}, ErrEmailTaken
	}

	now := s.now()
	u := User{ID: newID(), Email: email, FullName: fullName, CreatedAt: now}
	if _, err := tx.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, hash, formatTime(now)); err != nil {
		return User{}, wrapStoreErr("insert user", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (user_id, email, full_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FullName, formatTime(now), formatTime(now)); err != nil {
		return User{}, wrapStoreErr("insert profile", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO user_roles (user_id, role) VALUES (?, ?)`, u.ID, string(RoleUser)); err != nil {
		return User{}, wrapStoreErr("insert role", err)
	}
	if err := tx.Commit(); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate returns the user whose email and password match.
func (s *Store) Authenticate(ctx context.Context, email, password string) (User, error) {
	var id, hash string
	err := s.db.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email = ?`, NormalizeEmail(email)).
		Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if !CheckPasswordHash(password, hash) {
		return User{}, ErrInvalidCredentials
	}
	return s.GetUser(ctx, id)
}

// GetUser returns a user with profile details.
func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT u.id, u.email, COALESCE(p.full_name, ''), u.created_at
		FROM users u LEFT JOIN profiles p ON p.user_id = u.id WHERE u.id = ?`, id).
		Scan(&u.ID, &u.Email, &u.FullName, &created)
	if err != nil {
		return User{}, err
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// GetUserByEmail looks a user up by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var id string
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, NormalizeEmail(email)).Scan(&id); err != nil {
		return User{}, err
	}
	return s.GetUser(ctx, id)
}

// HasRole reports whether userID holds role.
func (s *Store) HasRole(ctx context.Context, userID string, role Role) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_roles WHERE user_id = ? AND role = ?`, userID, string(role)).Scan(&n)
	return n > 0, err
}

// GrantRole gives userID role. Granting a held role is a no-op.
func (s *Store) GrantRole(ctx context.Context, userID string, role Role) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO user_roles (user_id, role) VALUES (?, ?)`, userID, string(role))
	return err
}

// EnsureAdmin creates an admin account for email, or grants the admin role
// to the existing account. An existing password is left unchanged.
func (s *Store) EnsureAdmin(ctx context.Context, email, password, fullName string) (User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if fullName == "" {
			fullName = "Administrator"
		}
		u, err = s.CreateUser(ctx, email, password, fullName)
		if err != nil {
			return User{}, err
		}
	case err != nil:
		return User{}, err
	}
	if err := s.GrantRole(ctx, u.ID, RoleAdmin); err != nil {
		return User{}, fmt.Errorf("grant admin: %w", err)
	}
	return u, nil
}
