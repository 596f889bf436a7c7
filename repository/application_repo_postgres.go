package repository

import (
	"context"
	"database/sql"
	"fmt"

	"microloan/models"

	"github.com/google/uuid"
)

type PostgresApplicationRepo struct {
	DB *sql.DB
}

func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{DB: db}
}

const applicationColumns = `id, user_email, loan_title, loan_id, first_name, last_name, contact_number,
	national_id, income_source, monthly_income, loan_amount, reason, address, notes,
	status, application_fee_status, applied_at`

// CreateApplication relies on the (user_email, loan_title) unique
// constraint to reject a second application for the same loan.
func (r *PostgresApplicationRepo) CreateApplication(ctx context.Context, app *models.LoanApplication) error {
	id := uuid.NewString()

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO loan_application (`+applicationColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, id, app.UserEmail, app.LoanTitle, app.LoanID, app.FirstName, app.LastName, app.ContactNumber,
		app.NationalID, app.IncomeSource, app.MonthlyIncome, app.LoanAmount, app.Reason, app.Address, app.Notes,
		app.Status, app.ApplicationFeeStatus, app.AppliedAt)
	if err != nil {
		return pgInsertErr("application", err)
	}

	app.ID = id
	return nil
}

func (r *PostgresApplicationRepo) ListApplications(ctx context.Context, userEmail string) ([]*models.LoanApplication, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if userEmail == "" {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+applicationColumns+` FROM loan_application ORDER BY applied_at`)
	} else {
		rows, err = r.DB.QueryContext(ctx, `SELECT `+applicationColumns+` FROM loan_application WHERE user_email = $1 ORDER BY applied_at`, userEmail)
	}
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	out := make([]*models.LoanApplication, 0)
	for rows.Next() {
		a := &models.LoanApplication{}
		if err := rows.Scan(&a.ID, &a.UserEmail, &a.LoanTitle, &a.LoanID, &a.FirstName, &a.LastName, &a.ContactNumber,
			&a.NationalID, &a.IncomeSource, &a.MonthlyIncome, &a.LoanAmount, &a.Reason, &a.Address, &a.Notes,
			&a.Status, &a.ApplicationFeeStatus, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *PostgresApplicationRepo) UpdateApplicationStatus(ctx context.Context, id, status string) error {
	uid, err := parseUUID(id)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, `UPDATE loan_application SET status = $1 WHERE id = $2`, status, uid)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	return rowsAffected(res)
}

func (r *PostgresApplicationRepo) DeleteApplication(ctx context.Context, id string) error {
	uid, err := parseUUID(id)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, `DELETE FROM loan_application WHERE id = $1`, uid)
	if err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return rowsAffected(res)
}
