package repository

import (
	"context"

	"microloan/models"
)

// ApplicationRepository persists loan applications. CreateApplication
// returns ErrDuplicate when the (UserEmail, LoanTitle) pair already exists.
type ApplicationRepository interface {
	CreateApplication(ctx context.Context, app *models.LoanApplication) error
	// ListApplications returns every application, or only those of
	// userEmail when it is non-empty.
	ListApplications(ctx context.Context, userEmail string) ([]*models.LoanApplication, error)
	UpdateApplicationStatus(ctx context.Context, id, status string) error
	DeleteApplication(ctx context.Context, id string) error
}
