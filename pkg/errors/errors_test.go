package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppErrorMessage(t *testing.T) {
	err := New("TEST", "something broke", http.StatusTeapot)
	require.Equal(t, "something broke", err.Error())
	require.Equal(t, http.StatusTeapot, err.StatusCode)

	wrapped := err.WithInternal(errors.New("root cause"))
	require.Contains(t, wrapped.Error(), "root cause")
	require.Equal(t, err.Code, wrapped.Code)
	// The original stays untouched.
	require.Nil(t, err.Internal)
}

func TestFromError(t *testing.T) {
	require.Nil(t, FromError(nil))

	appErr := New("X", "x", http.StatusBadRequest)
	require.Equal(t, appErr, FromError(appErr))

	generic := FromError(errors.New("boom"))
	require.Equal(t, ErrInternalServer.Code, generic.Code)
	require.EqualError(t, generic.Unwrap(), "boom")
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := Wrap(cause, "query failed")
	require.ErrorIs(t, err, cause)
	require.Equal(t, http.StatusInternalServerError, err.StatusCode)
}

func TestErrorsIsMatchesSentinels(t *testing.T) {
	err := ErrForbidden.WithInternal(errors.New("extra"))
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, ErrForbidden.Code, appErr.Code)
}
