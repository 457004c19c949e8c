package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/braillearn/backend/internal/domain/entities"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrUsernameExists = errors.New("username already exists")
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, full_name, role, password, ci, active, created_by, created_at`

func scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.FullName,
		&u.Role,
		&u.PasswordHash,
		&u.CI,
		&u.Active,
		&u.CreatedBy,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &u, nil
}

// Create inserts a user and fills in its generated id.
// Returns ErrUsernameExists on a duplicate username.
func (r *UserRepository) Create(ctx context.Context, u *entities.User) error {
	query := `
		INSERT INTO users (username, full_name, role, password, ci, active, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		u.Username,
		u.FullName,
		u.Role,
		u.PasswordHash,
		u.CI,
		u.Active,
		u.CreatedBy,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrUsernameExists
		}

		return fmt.Errorf("create: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id.
// Returns ErrUserNotFound if the record doesn't exist.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("get by id: %w", err)
	}

	return u, nil
}

// GetByUsername retrieves a user by username.
// Returns ErrUserNotFound if the record doesn't exist.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("get by username: %w", err)
	}

	return u, nil
}

// UsernameTakenByOther reports whether another user already holds a username.
func (r *UserRepository) UsernameTakenByOther(ctx context.Context, username string, excludeID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id != $2)`

	var taken bool
	err := r.db.QueryRow(ctx, query, username, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("username taken: %w", err)
	}

	return taken, nil
}

// Update rewrites a user's editable fields. When passwordHash is non-empty the
// stored hash is replaced as well.
func (r *UserRepository) Update(ctx context.Context, id int64, username, fullName string, active bool, passwordHash string) error {
	var (
		tag pgconn.CommandTag
		err error
	)

	if passwordHash != "" {
		query := `UPDATE users SET username = $2, full_name = $3, active = $4, password = $5 WHERE id = $1`
		tag, err = r.db.Exec(ctx, query, id, username, fullName, active, passwordHash)
	} else {
		query := `UPDATE users SET username = $2, full_name = $3, active = $4 WHERE id = $1`
		tag, err = r.db.Exec(ctx, query, id, username, fullName, active)
	}
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Delete removes a user row.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM users WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// ListAll returns every user, newest first.
func (r *UserRepository) ListAll(ctx context.Context) ([]*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id DESC`

	return r.queryUsers(ctx, query)
}

// ListByRole returns users with the given role ordered by full name.
func (r *UserRepository) ListByRole(ctx context.Context, role string) ([]*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY full_name`

	return r.queryUsers(ctx, query, role)
}

// CountByRole returns the number of users with the given role.
func (r *UserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE role = $1`

	var count int
	err := r.db.QueryRow(ctx, query, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by role: %w", err)
	}

	return count, nil
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args ...any) ([]*entities.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("query users: %w", err)
		}
		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}

	return users, nil
}
