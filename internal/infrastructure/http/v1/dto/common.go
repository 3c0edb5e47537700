// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"chalin/internal/core/apperror"
	"chalin/internal/core/id"
	"chalin/internal/core/types"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Deletion ---

type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// --- Parse helpers ---

// ParseID parses an ID string into a domain ID with a validation error.
func ParseID(field, raw string) (id.ID, error) {
	parsed, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id format").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return parsed, nil
}

// ParseMoney parses a decimal string ("12.50") into Money.
func ParseMoney(field, raw string) (types.Money, error) {
	m, err := types.NewMoneyFromString(raw)
	if err != nil {
		return types.Zero(), apperror.NewValidation("invalid decimal value").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return m, nil
}
