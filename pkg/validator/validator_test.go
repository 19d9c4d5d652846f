package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"min=2"`
}

func TestValidateStructPasses(t *testing.T) {
	require.NoError(t, ValidateStruct(&sample{Email: "a@b.co", Name: "ok"}))
}

func TestValidateStructReportsJSONFieldNames(t *testing.T) {
	err := ValidateStruct(&sample{Email: "not-an-email", Name: "x"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 2)

	fields := []string{failures[0].Field, failures[1].Field}
	require.Contains(t, fields, "email")
	require.Contains(t, fields, "name")
	require.Contains(t, err.Error(), "email failed on email")
}
