package validate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequired(t *testing.T) {
	assert.NoError(t, Required(Field{"crop", "Paddy"}, Field{"pests", "stem borer"}))

	err := Required(Field{"crop", "Paddy"}, Field{"pests", "   "}, Field{"soil", ""})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "pests", verr.Field)
	assert.Equal(t, "pests is required", err.Error())
}
