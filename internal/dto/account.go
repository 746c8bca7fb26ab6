package dto

import (
	"github.com/merchantkit/fulfillment_ledger/internal/core/domain"
)

// CreateAccountRequest defines the payload for adding an account to the chart.
type CreateAccountRequest struct {
	Code          string `json:"code" binding:"required,numeric,min=4,max=4"`
	Name          string `json:"name" binding:"required"`
	NormalBalance string `json:"normalBalance" binding:"required,oneof=DEBIT CREDIT"`
	Description   string `json:"description"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	NormalBalance string `json:"normalBalance"`
	Category      string `json:"category"`
	Description   string `json:"description"`
	IsActive      bool   `json:"isActive"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		Code:          a.Code,
		Name:          a.Name,
		NormalBalance: string(a.NormalBalance),
		Category:      string(a.Category()),
		Description:   a.Description,
		IsActive:      a.IsActive,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	responses := make([]AccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToAccountResponse(&accounts[i])
	}
	return responses
}
