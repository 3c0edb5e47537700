package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chalin/internal/core/apperror"
)

func TestTransition_Allowed(t *testing.T) {
	doc := NewDocument("PENDING")
	before := doc.Version

	err := doc.Transition("purchase", "RECEIVED", "PENDING")
	require.NoError(t, err)

	assert.Equal(t, Status("RECEIVED"), doc.Status)
	assert.Equal(t, before+1, doc.Version)
}

func TestTransition_MultipleAllowedStates(t *testing.T) {
	doc := NewDocument("IN_TRANSIT")

	err := doc.Transition("transfer", "CANCELLED", "PENDING", "IN_TRANSIT")
	require.NoError(t, err)
	assert.Equal(t, Status("CANCELLED"), doc.Status)
}

func TestTransition_Denied(t *testing.T) {
	doc := NewDocument("RECEIVED")
	before := doc.Version

	err := doc.Transition("purchase", "RECEIVED", "PENDING")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidStateTransition))

	// A refused transition leaves the document untouched.
	assert.Equal(t, Status("RECEIVED"), doc.Status)
	assert.Equal(t, before, doc.Version)
}

func TestIn(t *testing.T) {
	doc := NewDocument("PENDING")

	assert.True(t, doc.In("PENDING", "RECEIVED"))
	assert.False(t, doc.In("RECEIVED", "CANCELLED"))
}
