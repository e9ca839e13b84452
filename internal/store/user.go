package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/farman-pharma/apiserver/internal/authz"
	"github.com/farman-pharma/apiserver/types"
)

const userColumns = `id, google_id, name, email, image, is_admin, admin_role, permissions, last_login, password_hash, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE google_id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, googleID))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpsertByGoogleID implements the sign-in lifecycle: create the record on the
// first sign-in, refresh name/avatar/lastLogin on every subsequent one. The
// admin flag, role, and permissions are never touched here.
func (r *UserRepository) UpsertByGoogleID(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	const query = `
		INSERT INTO users (google_id, name, email, image, is_admin, admin_role, permissions, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, FALSE, NULL, '[]'::jsonb, $5, $5, $5)
		ON CONFLICT (google_id) DO UPDATE
		SET name = EXCLUDED.name,
			image = EXCLUDED.image,
			last_login = EXCLUDED.last_login,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(
		ctx,
		query,
		user.GoogleID,
		user.Name,
		strings.ToLower(strings.TrimSpace(user.Email)),
		nullString(user.Image),
		now,
	))
}

// Create inserts a locally bootstrapped account (password login).
func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now()
	permissionsJSON, err := json.Marshal(authz.NormalizeTokens(user.Permissions))
	if err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (google_id, name, email, image, is_admin, admin_role, permissions, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		RETURNING ` + userColumns
	created, err := scanUser(r.db.QueryRowContext(
		ctx,
		query,
		nullString(user.GoogleID),
		user.Name,
		strings.ToLower(strings.TrimSpace(user.Email)),
		nullString(user.Image),
		user.IsAdmin,
		nullString(user.AdminRole),
		permissionsJSON,
		nullString(user.PasswordHash),
		now,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicate
		}
		return types.User{}, err
	}
	return created, nil
}

// UpdateAccess patches the management fields: admin flag, role, permissions.
func (r *UserRepository) UpdateAccess(ctx context.Context, id int, isAdmin bool, role string, permissions []string) (types.User, error) {
	permissionsJSON, err := json.Marshal(authz.NormalizeTokens(permissions))
	if err != nil {
		return types.User{}, err
	}

	const query = `
		UPDATE users
		SET is_admin = $1,
			admin_role = $2,
			permissions = $3,
			updated_at = $4
		WHERE id = $5
		RETURNING ` + userColumns
	return scanUser(r.db.QueryRowContext(ctx, query, isAdmin, nullString(role), permissionsJSON, time.Now(), id))
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var (
		user            types.User
		googleID        sql.NullString
		image           sql.NullString
		adminRole       sql.NullString
		permissionsJSON []byte
		lastLogin       sql.NullTime
		passwordHash    sql.NullString
	)
	err := row.Scan(
		&user.ID,
		&googleID,
		&user.Name,
		&user.Email,
		&image,
		&user.IsAdmin,
		&adminRole,
		&permissionsJSON,
		&lastLogin,
		&passwordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	user.GoogleID = googleID.String
	user.Image = image.String
	user.AdminRole = adminRole.String
	user.PasswordHash = passwordHash.String
	if lastLogin.Valid {
		user.LastLogin = lastLogin.Time
	}

	var raw []string
	_ = json.Unmarshal(permissionsJSON, &raw)
	// Legacy rows may hold one comma-joined token string.
	user.Permissions = authz.NormalizeTokens(raw)
	return user, nil
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}
