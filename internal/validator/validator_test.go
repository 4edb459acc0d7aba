package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backcheck-service/pkg/models"
)

func validTalent() models.RegisterTalentRequest {
	return models.RegisterTalentRequest{
		Email:           "ada@example.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		FullName:        "Ada Obi",
		Profession:      "Nurse",
	}
}

func TestValidRequestPasses(t *testing.T) {
	assert.NoError(t, New().Validate(validTalent()))
}

func TestPasswordMismatch(t *testing.T) {
	req := validTalent()
	req.ConfirmPassword = "secret2"

	err := New().Validate(req)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Passwords do not match", ve.Errors["confirmPassword"])
	assert.Equal(t, "Passwords do not match", ve.Summary())
}

func TestShortPassword(t *testing.T) {
	req := validTalent()
	req.Password = "abc"
	req.ConfirmPassword = "abc"

	err := New().Validate(req)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "Password must be at least 6 characters", ve.Summary())
}

func TestMismatchReportedBeforeLength(t *testing.T) {
	req := validTalent()
	req.Password = "abc"
	req.ConfirmPassword = "abd"

	var ve *ValidationError
	require.True(t, errors.As(New().Validate(req), &ve))
	assert.Equal(t, "Passwords do not match", ve.Summary())
	assert.Contains(t, ve.Errors, "password")
}

func TestRequiredFieldsUseJSONNames(t *testing.T) {
	req := validTalent()
	req.FullName = ""
	req.Email = "nope"

	var ve *ValidationError
	require.True(t, errors.As(New().Validate(req), &ve))
	assert.Equal(t, "This field is required", ve.Errors["fullName"])
	assert.Equal(t, "Must be a valid email address", ve.Errors["email"])
	assert.Contains(t, ve.Error(), "field 'email'")
}
