package models

import "time"

type Loan struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Amount       float64   `json:"amount"`
	InterestRate float64   `json:"interestRate"`
	Image        string    `json:"image"`
	CreatedAt    time.Time `json:"createdAt"`
}
