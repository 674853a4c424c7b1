package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusUnwrapsWrappedErrors(t *testing.T) {
	err := fmt.Errorf("update recipe: %w", Forbidden("not your recipe"))
	status, code := Status(err)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "forbidden", code)
	assert.Equal(t, "update recipe: not your recipe", err.Error())
}

func TestStatusDefaultsToInternal(t *testing.T) {
	status, code := Status(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "internal", code)
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("firestore unavailable")
	err := Internal(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "firestore unavailable", err.Error())
}
