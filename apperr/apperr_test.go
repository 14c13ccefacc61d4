// apperr/apperr_test.go
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("loading note: %w", NotFound("Note not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "Service notes unavailable")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Service notes unavailable: connection refused", err.Error())
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
}

func TestCodeHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, Validation("bad").HTTPStatus())
	assert.Equal(t, http.StatusConflict, Conflict("taken").HTTPStatus())
	assert.Equal(t, http.StatusGatewayTimeout, Timeout("slow").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Internal("boom").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, Code("SOMETHING_ELSE").HTTPStatus())
}
