package repo

import (
	"context"
	"database/sql"

	"github.com/crucial707/hci-todo/internal/models"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// uniqueViolation is the postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

// ==========================
// UserRepo (postgres)
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// ==========================
// Create User
// ==========================
func (r *UserRepo) Create(ctx context.Context, username, passwordHash, role string) (*models.User, error) {
	query := `
		INSERT INTO users (username, username_key, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, username, role
	`

	user := &models.User{PasswordHash: passwordHash}

	err := r.DB.QueryRowContext(ctx, query, username, UsernameKey(username), passwordHash, role).
		Scan(&user.ID, &user.Username, &user.Role)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrConflict
		}
		return nil, errors.Wrap(err, "UserRepo.Create")
	}

	return user, nil
}

// ==========================
// Get By ID
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id), "UserRepo.GetByID")
}

// ==========================
// Get By Username (case-insensitive)
// ==========================
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password_hash, role
		FROM users
		WHERE username_key = $1
	`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, UsernameKey(username)), "UserRepo.GetByUsername")
}

// ==========================
// List Users
// ==========================
func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT id, username, role FROM users ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "UserRepo.List")
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role); err != nil {
			return nil, errors.Wrap(err, "UserRepo.List scan")
		}
		users = append(users, u)
	}

	return users, errors.Wrap(rows.Err(), "UserRepo.List rows")
}

func (r *UserRepo) scanOne(row *sql.Row, op string) (*models.User, error) {
	user := &models.User{}
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, op)
	}
	return user, nil
}
