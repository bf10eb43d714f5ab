package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("escrow service: %w", ErrEscrowExpired)

	assert.Equal(t, ErrCodeExpired, CodeOf(wrapped))
	assert.Equal(t, ErrCodeInternal, CodeOf(errors.New("boom")))
	assert.True(t, IsValidation(fmt.Errorf("saved lineup: %w", ErrContactRequired)))
	assert.True(t, errors.Is(wrapped, ErrEscrowExpired))
	assert.False(t, errors.Is(wrapped, ErrEscrowNotFound))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("pq: duplicate key")
	err := Wrap(cause, ErrCodeDatabaseError, "could not save")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, err.HTTPStatus)
	assert.Equal(t, "could not save", PublicMessage(err))
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestPublicMessage_HidesUnknownErrors(t *testing.T) {
	assert.Equal(t, "something went wrong, please try again", PublicMessage(errors.New("sql: connection refused")))
	assert.Equal(t, "contact information does not match", PublicMessage(ErrContactMismatch))
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, ErrEscrowNotFound.HTTPStatus)
	assert.Equal(t, http.StatusGone, ErrEscrowExpired.HTTPStatus)
	assert.Equal(t, http.StatusForbidden, ErrContactMismatch.HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, ErrContactRequired.HTTPStatus)
	assert.Equal(t, http.StatusConflict, ErrSavedLineupConflict.HTTPStatus)
}
