package models

import "time"

// Application lifecycle states.
const (
	StatusPending   = "Pending"
	StatusApproved  = "Approved"
	StatusRejected  = "Rejected"
	StatusCancelled = "Cancelled"
)

// Application fee states.
const (
	FeeUnpaid = "Unpaid"
	FeePaid   = "Paid"
)

// ValidStatus reports whether status is a known application status.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// LoanApplication is a borrower's request against a loan. At most one
// application exists per (UserEmail, LoanTitle).
type LoanApplication struct {
	ID                   string    `json:"id"`
	UserEmail            string    `json:"userEmail"`
	LoanTitle            string    `json:"loanTitle"`
	LoanID               string    `json:"loanId,omitempty"`
	FirstName            string    `json:"firstName"`
	LastName             string    `json:"lastName"`
	ContactNumber        string    `json:"contactNumber"`
	NationalID           string    `json:"nationalId,omitempty"`
	IncomeSource         string    `json:"incomeSource,omitempty"`
	MonthlyIncome        float64   `json:"monthlyIncome,omitempty"`
	LoanAmount           float64   `json:"loanAmount"`
	Reason               string    `json:"reason,omitempty"`
	Address              string    `json:"address,omitempty"`
	Notes                string    `json:"notes,omitempty"`
	Status               string    `json:"status"`
	ApplicationFeeStatus string    `json:"applicationFeeStatus"`
	AppliedAt            time.Time `json:"appliedAt"`
}
