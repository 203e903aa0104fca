package inputval_test

import (
	"testing"

	"github.com/dalemusser/villahub/internal/app/system/inputval"
	"github.com/stretchr/testify/assert"
)

type ticketInput struct {
	Title    string `json:"title" validate:"notblank,max=200"`
	Priority string `json:"priority" validate:"omitempty,priority"`
	Status   string `json:"status" validate:"omitempty,ticket_status"`
}

type roleInput struct {
	Role string `form:"role" validate:"required,villa_role"`
}

type propertyInput struct {
	Title   string `json:"title" validate:"required"`
	Listing string `json:"listing_status" validate:"omitempty,listing_status"`
	Email   string `json:"contact_email" validate:"omitempty,email"`
}

func TestStruct_Valid(t *testing.T) {
	assert.Nil(t, inputval.Struct(ticketInput{Title: "Broken gate", Priority: "high"}))
	assert.Nil(t, inputval.Struct(roleInput{Role: "bod"}))
}

func TestStruct_FieldMessages(t *testing.T) {
	errs := inputval.Struct(ticketInput{Title: "   ", Priority: "asap", Status: "pending"})

	assert.Equal(t, "is required", errs["title"])
	assert.Equal(t, "is not a valid priority", errs["priority"])
	assert.Equal(t, "is not a valid ticket status", errs["status"])
}

func TestStruct_UsesFormAndJSONNames(t *testing.T) {
	errs := inputval.Struct(roleInput{Role: "janitor"})
	assert.Equal(t, "is not a known community role", errs["role"])

	errs = inputval.Struct(propertyInput{Listing: "auction", Email: "nope"})
	assert.Equal(t, "is required", errs["title"])
	assert.Equal(t, "is not a valid listing status", errs["listing_status"])
	assert.Equal(t, "must be a valid email address", errs["contact_email"])
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, inputval.IsValidEmail("user@example.com"))
	assert.True(t, inputval.IsValidEmail("  user.name+tag@example.co.uk "))
	assert.False(t, inputval.IsValidEmail(""))
	assert.False(t, inputval.IsValidEmail("user"))
	assert.False(t, inputval.IsValidEmail("@example.com"))
}

func TestIsValidHTTPURL(t *testing.T) {
	assert.True(t, inputval.IsValidHTTPURL("https://example.com/path?q=1"))
	assert.True(t, inputval.IsValidHTTPURL("http://localhost:8080"))
	assert.False(t, inputval.IsValidHTTPURL(""))
	assert.False(t, inputval.IsValidHTTPURL("ftp://example.com"))
	assert.False(t, inputval.IsValidHTTPURL("mailto:user@example.com"))
	assert.False(t, inputval.IsValidHTTPURL("example.com"))
}
