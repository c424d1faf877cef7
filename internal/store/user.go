package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/transportmanager/apiserver/types"
)

const publicUserColumns = `id, name, email, role, status, created_at, updated_at, last_login`

// UserRepository handles persistence for users.
// Every method touches at most one row.
type UserRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner, extra ...any) (types.User, error) {
	var user types.User
	var lastLogin sql.NullTime
	dest := []any{
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
		&lastLogin,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return types.User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

// List returns every user regardless of status, newest first.
func (r *UserRepository) List(ctx context.Context) ([]types.User, error) {
	const query = `
		SELECT ` + publicUserColumns + `
		FROM users
		ORDER BY created_at DESC, id DESC`
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// GetByEmail returns the full record of an active user. Inactive users are
// reported as ErrNotFound so they cannot authenticate.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.UserRecord, error) {
	const query = `
		SELECT ` + publicUserColumns + `, password
		FROM users
		WHERE email = $1 AND status = $2`
	var record types.UserRecord
	user, err := scanUser(r.db.QueryRowContext(ctx, query, email, types.StatusActive), &record.Password)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.UserRecord{}, ErrNotFound
		}
		return types.UserRecord{}, err
	}
	record.User = user
	return record, nil
}

// GetByID returns the public record for id in any status.
func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	const query = `
		SELECT ` + publicUserColumns + `
		FROM users
		WHERE id = $1`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

// Create inserts a user and returns the stored public record.
func (r *UserRepository) Create(ctx context.Context, user types.NewUser) (types.User, error) {
	if user.Status == "" {
		user.Status = types.StatusActive
	}
	now := r.now()

	const query = `
		INSERT INTO users (name, email, password, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	var id int
	if err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.Password,
		user.Role,
		user.Status,
		now,
		now,
	).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, err
	}

	created, err := r.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return types.User{}, fmt.Errorf("user %d missing after insert", id)
		}
		return types.User{}, err
	}
	return created, nil
}

// Update writes the supplied fields of update and refreshes updated_at.
// Empty fields are skipped. ErrNotFound is returned when id does not exist.
func (r *UserRepository) Update(ctx context.Context, id int, update types.UserUpdate) (types.User, error) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if update.Name != "" {
		add("name", update.Name)
	}
	if update.Email != "" {
		add("email", update.Email)
	}
	if update.Password != "" {
		add("password", update.Password)
	}
	if update.Role != "" {
		add("role", update.Role)
	}
	if update.Status != "" {
		add("status", update.Status)
	}
	add("updated_at", r.now())
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrEmailTaken
		}
		return types.User{}, err
	}

	return r.GetByID(ctx, id)
}

// TouchLastLogin stamps last_login with the current time.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id int) error {
	const query = `UPDATE users SET last_login = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, r.now(), id)
	return err
}

// SoftDelete marks the user inactive. It reports false when no row changed,
// which includes users that are already inactive.
func (r *UserRepository) SoftDelete(ctx context.Context, id int) (bool, error) {
	const query = `UPDATE users SET status = $1 WHERE id = $2 AND status <> $1`
	result, err := r.db.ExecContext(ctx, query, types.StatusInactive, id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// EmailInUse checks every record, active or not. An excludeID of zero
// excludes nothing.
func (r *UserRepository) EmailInUse(ctx context.Context, email string, excludeID int) (bool, error) {
	var row *sql.Row
	if excludeID > 0 {
		const query = `SELECT id FROM users WHERE email = $1 AND id <> $2 LIMIT 1`
		row = r.db.QueryRowContext(ctx, query, email, excludeID)
	} else {
		const query = `SELECT id FROM users WHERE email = $1 LIMIT 1`
		row = r.db.QueryRowContext(ctx, query, email)
	}

	var id int
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CountByRole counts active users per role. Roles with no users report zero.
func (r *UserRepository) CountByRole(ctx context.Context) (types.RoleCounts, error) {
	const query = `
		SELECT role, COUNT(*)
		FROM users
		WHERE status = $1
		GROUP BY role`
	rows, err := r.db.QueryContext(ctx, query, types.StatusActive)
	if err != nil {
		return types.RoleCounts{}, err
	}
	defer rows.Close()

	var counts types.RoleCounts
	for rows.Next() {
		var role types.Role
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return types.RoleCounts{}, err
		}
		switch role {
		case types.RoleAdmin:
			counts.Admin = count
		case types.RoleOperator:
			counts.Operator = count
		case types.RoleViewer:
			counts.Viewer = count
		}
	}
	if err := rows.Err(); err != nil {
		return types.RoleCounts{}, err
	}
	return counts, nil
}
