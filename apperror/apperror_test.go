package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindBadRequest:     http.StatusBadRequest,
		KindBadCredentials: http.StatusBadRequest,
		KindUnauthorized:   http.StatusUnauthorized,
		KindForbidden:      http.StatusForbidden,
		KindNotFound:       http.StatusNotFound,
		KindConflict:       http.StatusConflict,
		KindInternal:       http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}

func TestFromWrappedError(t *testing.T) {
	err := fmt.Errorf("loading cart: %w", NotFound("Cart not found"))

	appErr := From(err)
	assert.Equal(t, KindNotFound, appErr.Kind)
	assert.Equal(t, "Cart not found", appErr.Message)
}

func TestFromUnknownErrorIsInternal(t *testing.T) {
	cause := errors.New("connection reset")

	appErr := From(cause)
	assert.Equal(t, KindInternal, appErr.Kind)
	assert.ErrorIs(t, appErr, cause)
	assert.Equal(t, KindInternal, KindOf(cause))
}
