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

type PostgresLoanRepo struct {
	DB *sql.DB
}

func NewPostgresLoanRepo(db *sql.DB) *PostgresLoanRepo {
	return &PostgresLoanRepo{DB: db}
}

const loanColumns = `id, title, description, amount, interest_rate, image, created_at`

func scanLoan(row interface{ Scan(...any) error }) (*models.Loan, error) {
	l := &models.Loan{}
	if err := row.Scan(&l.ID, &l.Title, &l.Description, &l.Amount, &l.InterestRate, &l.Image, &l.CreatedAt); err != nil {
		return nil, err
	}
	return l, nil
}

func (r *PostgresLoanRepo) CreateLoan(ctx context.Context, loan *models.Loan) error {
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now().UTC()
	}
	id := uuid.NewString()

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO loan (id, title, description, amount, interest_rate, image, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, loan.Title, loan.Description, loan.Amount, loan.InterestRate, loan.Image, loan.CreatedAt)
	if err != nil {
		return pgInsertErr("loan", err)
	}

	loan.ID = id
	return nil
}

func (r *PostgresLoanRepo) ListLoans(ctx context.Context) ([]*models.Loan, error) {
	return r.query(ctx, `SELECT `+loanColumns+` FROM loan ORDER BY created_at, id`)
}

func (r *PostgresLoanRepo) ListLoansWindow(ctx context.Context, skip, limit int64) ([]*models.Loan, error) {
	return r.query(ctx, `SELECT `+loanColumns+` FROM loan ORDER BY created_at, id OFFSET $1 LIMIT $2`, skip, limit)
}

func (r *PostgresLoanRepo) query(ctx context.Context, q string, args ...any) ([]*models.Loan, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Loan, 0)
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan loan: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresLoanRepo) GetLoanByID(ctx context.Context, id string) (*models.Loan, error) {
	uid, err := parseUUID(id)
	if err != nil {
		return nil, err
	}

	loan, err := scanLoan(r.DB.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loan WHERE id = $1`, uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find loan: %w", err)
	}
	return loan, nil
}
