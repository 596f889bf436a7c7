package handlers

import (
	"net/http"
	"strings"

	"microloan/models"
)

// The top-loans window is fixed.
const (
	topLoansSkip  = 4
	topLoansLimit = 6
)

type createLoanRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Amount       *float64 `json:"amount"`
	InterestRate *float64 `json:"interestRate"`
	Image        string   `json:"image"`
}

func (req *createLoanRequest) validate() *APIError {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Image = strings.TrimSpace(req.Image)

	var missing []string
	if req.Title == "" {
		missing = append(missing, "title")
	}
	if req.Description == "" {
		missing = append(missing, "description")
	}
	if req.Amount == nil {
		missing = append(missing, "amount")
	}
	if req.InterestRate == nil {
		missing = append(missing, "interestRate")
	}
	if req.Image == "" {
		missing = append(missing, "image")
	}
	if len(missing) > 0 {
		return missingFields(missing...)
	}

	if *req.Amount <= 0 {
		return InvalidInput("amount must be greater than 0")
	}
	if *req.InterestRate < 0 {
		return InvalidInput("interestRate must not be negative")
	}
	return nil
}

func (a *App) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := a.Loans.ListLoans(r.Context())
	if err != nil {
		a.fail(w, r, "list loans", err)
		return
	}
	if loans == nil {
		loans = []*models.Loan{}
	}
	writeJSON(w, http.StatusOK, loans)
}

func (a *App) TopLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := a.Loans.ListLoansWindow(r.Context(), topLoansSkip, topLoansLimit)
	if err != nil {
		a.fail(w, r, "top loans", err)
		return
	}
	if loans == nil {
		loans = []*models.Loan{}
	}
	writeJSON(w, http.StatusOK, loans)
}

func (a *App) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := a.Loans.GetLoanByID(r.Context(), r.PathValue("id"))
	if err != nil {
		a.fail(w, r, "get loan", err)
		return
	}
	if loan == nil {
		WriteError(w, NotFound("loan not found"))
		return
	}
	writeJSON(w, http.StatusOK, loan)
}

func (a *App) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req createLoanRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		WriteError(w, apiErr)
		return
	}
	if apiErr := req.validate(); apiErr != nil {
		WriteError(w, apiErr)
		return
	}

	loan := &models.Loan{
		Title:        req.Title,
		Description:  req.Description,
		Amount:       *req.Amount,
		InterestRate: *req.InterestRate,
		Image:        req.Image,
		CreatedAt:    a.now().UTC(),
	}
	if err := a.Loans.CreateLoan(r.Context(), loan); err != nil {
		a.discardImage(r, loan.Image)
		a.fail(w, r, "create loan", err)
		return
	}

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Loan created successfully",
		ID:      loan.ID,
	})
}

// discardImage removes an uploaded image whose loan could not be stored.
func (a *App) discardImage(r *http.Request, imageURL string) {
	if a.Images == nil {
		return
	}
	if err := a.Images.Delete(r.Context(), imageURL); err != nil {
		a.log(r).WithError(err).WithField("image", imageURL).Warn("orphaned loan image not removed")
	}
}
