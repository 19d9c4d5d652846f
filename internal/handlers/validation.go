package handlers

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/hearthsocial/hearth/pkg/errors"
	"github.com/hearthsocial/hearth/pkg/validator"
)

// bindAndValidate decodes the JSON body into T and runs struct validation.
// On failure it writes nothing; the caller renders the returned error.
func bindAndValidate[T any](c *gin.Context) (*T, error) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, apperrors.NewBadRequest("invalid request payload")
	}
	if err := validator.ValidateStruct(&payload); err != nil {
		return nil, formatValidationError(err)
	}
	return &payload, nil
}

func formatValidationError(err error) error {
	var failures validator.ValidationErrors
	if errors.As(err, &failures) && len(failures) > 0 {
		parts := make([]string, 0, len(failures))
		for _, f := range failures {
			switch f.Tag {
			case "required":
				parts = append(parts, f.Field+" is required")
			case "email":
				parts = append(parts, f.Field+" must be a valid email address")
			case "min":
				parts = append(parts, f.Field+" must be at least "+f.Param+" characters")
			case "max":
				parts = append(parts, f.Field+" must be at most "+f.Param+" characters")
			default:
				parts = append(parts, f.Field+" is invalid")
			}
		}
		return apperrors.NewBadRequest(strings.Join(parts, "; "))
	}
	return apperrors.NewBadRequest("invalid request payload")
}
