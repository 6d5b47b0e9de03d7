// internal/store/users.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"counsel-workers/internal/common/logger"
	"counsel-workers/internal/models"
)

const userColumns = `user_id, name, email, password_hash, role, is_active, created_at`

// UserStore manages staff accounts.
type UserStore struct {
	db     *sql.DB
	logger logger.Logger
	cost   int
}

func NewUserStore(db *sql.DB, log logger.Logger) *UserStore {
	return &UserStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "user-store"}),
		cost:   bcrypt.DefaultCost,
	}
}

// CreateUser hashes password with bcrypt and inserts an active account.
func (s *UserStore) CreateUser(ctx context.Context, name, email, password string, role models.Role) (*models.StaffUser, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbiddenRole, role)
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.StaffUser{
		ID:           strings.ToUpper(uuid.New().String()[:8]),
		Name:         name,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (user_id, name, email, password_hash, role, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.Active, u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUser, u.Email)
		}
		return nil, fmt.Errorf("%w: insert user: %v", ErrDatabaseWriteFailed, err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*models.StaffUser, error) {
	var (
		u    models.StaffUser
		role string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &role, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}

func (s *UserStore) GetUserByEmail(ctx context.Context, email string) (*models.StaffUser, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`,
		strings.ToLower(strings.TrimSpace(email)))
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, email)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", ErrQueryFailed, err)
	}
	return u, nil
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (*models.StaffUser, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get user: %v", ErrQueryFailed, err)
	}
	return u, nil
}

// ListUsers returns accounts ordered by name. An empty role lists everyone.
func (s *UserStore) ListUsers(ctx context.Context, role models.Role, activeOnly bool) ([]models.StaffUser, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ($1 = '' OR role = $1)`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var out []models.StaffUser
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan user: %v", ErrQueryFailed, err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Authenticate checks credentials. Unknown emails, inactive accounts and wrong
// passwords all yield ErrInvalidCredentials.
func (s *UserStore) Authenticate(ctx context.Context, email, password string) (*models.StaffUser, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureBootstrapAdmin creates an ADMIN account when the users table is empty.
// It does nothing when no password is configured.
func (s *UserStore) EnsureBootstrapAdmin(ctx context.Context, email, password string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, fmt.Errorf("%w: count users: %v", ErrQueryFailed, err)
	}
	if count > 0 {
		return false, nil
	}
	if password == "" {
		s.logger.Warn("users table is empty and no bootstrap admin password is configured", nil)
		return false, nil
	}

	u, err := s.CreateUser(ctx, "Default Admin", email, password, models.RoleAdmin)
	if err != nil {
		return false, err
	}
	s.logger.Info("bootstrap admin created", map[string]interface{}{
		"userId": u.ID,
		"email":  u.Email,
	})
	return true, nil
}
