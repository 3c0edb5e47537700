package entity

import (
	"context"
	"time"

	"chalin/internal/core/apperror"
	"chalin/internal/core/id"
)

// Status is a document lifecycle state.
type Status string

// Document is the base type for business transactions.
// Examples: Purchase, Sale, Transfer, Quotation.
type Document struct {
	BaseDocument

	// Number is the document number (auto-generated, unique within type+branch+period)
	Number string `db:"number" json:"number"`

	// Date is the business date of the document
	Date time.Time `db:"date" json:"date"`

	// Status is the current lifecycle state
	Status Status `db:"status" json:"status"`

	// Comment is an optional user comment
	Comment string `db:"comment" json:"comment,omitempty"`
}

// NewDocument creates a new Document with generated ID in the given initial state.
func NewDocument(initial Status) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC(),
		Status:       initial,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	if d.Date.IsZero() {
		return apperror.NewValidation("date is required").
			WithDetail("field", "date")
	}

	return nil
}

// Transition moves the document to the target state, failing with
// InvalidStateTransition unless the current state is one of allowedFrom.
// All stock effects must run this check before mutating anything.
func (d *Document) Transition(docType string, to Status, allowedFrom ...Status) error {
	for _, from := range allowedFrom {
		if d.Status == from {
			d.Status = to
			d.Touch()
			return nil
		}
	}
	return apperror.NewInvalidStateTransition(docType, string(d.Status), string(to)).
		WithDetail("document_id", d.ID.String())
}

// In reports whether the document is in one of the given states.
func (d *Document) In(states ...Status) bool {
	for _, s := range states {
		if d.Status == s {
			return true
		}
	}
	return false
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}
