package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	FullName string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6,max=72"`
}

func TestMessages(t *testing.T) {
	v := New()

	err := v.Struct(sample{Email: "nope", Password: "123"})
	require.Error(t, err)

	assert.Equal(t, []string{
		"full name is required",
		"email must be a valid email",
		"password must be at least 6 characters",
	}, Messages(err))
}

func TestMessages_Max(t *testing.T) {
	err := New().Struct(sample{FullName: "A", Email: "a@x.com", Password: strings.Repeat("p", 73)})
	require.Error(t, err)
	assert.Equal(t, []string{"password must be at most 72 characters"}, Messages(err))
}

func TestMessages_NonValidatorError(t *testing.T) {
	assert.Equal(t, []string{"boom"}, Messages(errors.New("boom")))
	assert.Nil(t, Messages(nil))
}
