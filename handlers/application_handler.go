package handlers

import (
	"errors"
	"net/http"
	"strings"

	"microloan/auth"
	"microloan/models"
	"microloan/repository"
)

type submitApplicationRequest struct {
	LoanTitle     string   `json:"loanTitle"`
	LoanID        string   `json:"loanId"`
	FirstName     string   `json:"firstName"`
	LastName      string   `json:"lastName"`
	ContactNumber string   `json:"contactNumber"`
	NationalID    string   `json:"nationalId"`
	IncomeSource  string   `json:"incomeSource"`
	MonthlyIncome float64  `json:"monthlyIncome"`
	LoanAmount    *float64 `json:"loanAmount"`
	Reason        string   `json:"reason"`
	Address       string   `json:"address"`
	Notes         string   `json:"notes"`
}

func (req *submitApplicationRequest) validate() *APIError {
	req.LoanTitle = strings.TrimSpace(req.LoanTitle)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	req.ContactNumber = strings.TrimSpace(req.ContactNumber)

	var missing []string
	if req.LoanTitle == "" {
		missing = append(missing, "loanTitle")
	}
	if req.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if req.LastName == "" {
		missing = append(missing, "lastName")
	}
	if req.ContactNumber == "" {
		missing = append(missing, "contactNumber")
	}
	if req.LoanAmount == nil {
		missing = append(missing, "loanAmount")
	}
	if len(missing) > 0 {
		return missingFields(missing...)
	}

	if *req.LoanAmount <= 0 {
		return InvalidInput("loanAmount must be greater than 0")
	}
	if req.MonthlyIncome < 0 {
		return InvalidInput("monthlyIncome must not be negative")
	}
	return nil
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// SubmitApplication records an application for the calling user. The
// owner is always the authenticated identity.
func (a *App) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	if id == nil {
		WriteError(w, Unauthenticated("authentication required"))
		return
	}

	var req submitApplicationRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		WriteError(w, apiErr)
		return
	}
	if apiErr := req.validate(); apiErr != nil {
		WriteError(w, apiErr)
		return
	}

	app := &models.LoanApplication{
		UserEmail:            normalizeEmail(id.Email),
		LoanTitle:            req.LoanTitle,
		LoanID:               strings.TrimSpace(req.LoanID),
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		ContactNumber:        req.ContactNumber,
		NationalID:           strings.TrimSpace(req.NationalID),
		IncomeSource:         strings.TrimSpace(req.IncomeSource),
		MonthlyIncome:        req.MonthlyIncome,
		LoanAmount:           *req.LoanAmount,
		Reason:               strings.TrimSpace(req.Reason),
		Address:              strings.TrimSpace(req.Address),
		Notes:                strings.TrimSpace(req.Notes),
		Status:               models.StatusPending,
		ApplicationFeeStatus: models.FeeUnpaid,
		AppliedAt:            a.now().UTC(),
	}

	if err := a.Applications.CreateApplication(r.Context(), app); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			WriteError(w, Conflict("you have already applied for this loan"))
			return
		}
		a.fail(w, r, "submit application", err)
		return
	}

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Application submitted successfully",
		ID:      app.ID,
	})
}

// ListApplications returns applications filtered by the optional email
// query parameter. Non-managers only ever see their own.
func (a *App) ListApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := auth.IdentityFrom(ctx)
	email := normalizeEmail(r.URL.Query().Get("email"))

	decision := auth.Decide(id, auth.ActionListApplications, auth.Target{Email: email})
	if !decision.Allowed() {
		a.log(r).WithField("reason", decision.Reason).Info("application list denied")
		WriteDecision(w, decision)
		return
	}
	if email == "" && !id.IsManager() {
		email = normalizeEmail(id.Email)
	}

	apps, err := a.Applications.ListApplications(ctx, email)
	if err != nil {
		a.fail(w, r, "list applications", err)
		return
	}
	if apps == nil {
		apps = []*models.LoanApplication{}
	}
	writeJSON(w, http.StatusOK, apps)
}

func (a *App) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if apiErr := decodeJSON(w, r, &req); apiErr != nil {
		WriteError(w, apiErr)
		return
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		WriteError(w, missingFields("status"))
		return
	}
	if !models.ValidStatus(status) {
		WriteError(w, InvalidInput("status must be one of Pending, Approved, Rejected, Cancelled"))
		return
	}

	id := r.PathValue("id")
	if err := a.Applications.UpdateApplicationStatus(r.Context(), id, status); err != nil {
		a.fail(w, r, "update application status", err)
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Application status updated",
		ID:      id,
	})
}

func (a *App) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := a.Applications.DeleteApplication(r.Context(), id); err != nil {
		a.fail(w, r, "delete application", err)
		return
	}

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Application deleted",
		ID:      id,
	})
}
