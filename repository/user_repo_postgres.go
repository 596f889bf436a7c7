package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"microloan/models"

	"github.com/google/uuid"
)

type PostgresUserRepo struct {
	DB *sql.DB
}

func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{DB: db}
}

const userColumns = `id, email, name, photo_url, role, password_hash, created_at`

func scanUser(row interface{ Scan(...any) error }) (*models.AppUser, error) {
	u := &models.AppUser{}
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PhotoURL, &u.Role, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateUser relies on the unique constraint on email to reject duplicates.
func (r *PostgresUserRepo) CreateUser(ctx context.Context, user *models.AppUser) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	id := uuid.NewString()

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO app_user (id, email, name, photo_url, role, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, user.Email, user.Name, user.PhotoURL, user.Role, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return pgInsertErr("user", err)
	}

	user.ID = id
	return nil
}

func (r *PostgresUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.AppUser, error) {
	user, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, id string) (*models.AppUser, error) {
	uid, err := parseUUID(id)
	if err != nil {
		return nil, err
	}

	user, err := scanUser(r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM app_user WHERE id = $1`, uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) ListUsers(ctx context.Context) ([]*models.AppUser, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM app_user ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*models.AppUser, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresUserRepo) UpdateUserRole(ctx context.Context, id, role string) error {
	uid, err := parseUUID(id)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, `UPDATE app_user SET role = $1 WHERE id = $2`, role, uid)
	if err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return rowsAffected(res)
}

func (r *PostgresUserRepo) DeleteUser(ctx context.Context, id string) error {
	uid, err := parseUUID(id)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM app_user WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return rowsAffected(res)
}
