package repository

import (
	"context"

	"microloan/models"
)

type LoanRepository interface {
	CreateLoan(ctx context.Context, loan *models.Loan) error
	ListLoans(ctx context.Context) ([]*models.Loan, error)
	// ListLoansWindow returns at most limit loans after skipping skip.
	ListLoansWindow(ctx context.Context, skip, limit int64) ([]*models.Loan, error)
	GetLoanByID(ctx context.Context, id string) (*models.Loan, error)
}
