package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStruct struct {
	Kind    string        `json:"kind" validate:"required,oneof=A B"`
	Text    string        `json:"text" validate:"required_if=Kind B,omitempty,minwords=3"`
	BaseURL string        `json:"base_url" validate:"required,url"`
	Timeout time.Duration `validate:"gt=0"`
}

func TestValidateStruct(t *testing.T) {
	valid := testStruct{Kind: "A", BaseURL: "https://api.example.com", Timeout: time.Second}

	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, ValidateStruct(&valid))
	})

	t.Run("fields are reported by json name", func(t *testing.T) {
		s := valid
		s.Kind = "C"
		s.BaseURL = "not a url"

		err := ValidateStruct(&s)
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Equal(t, "kind must be one of: A B", fields["kind"])
		assert.Equal(t, "base_url must be a valid URL", fields["base_url"])
	})

	t.Run("field without json tag keeps its Go name", func(t *testing.T) {
		s := valid
		s.Timeout = 0

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Contains(t, fields, "Timeout")
	})

	t.Run("required_if", func(t *testing.T) {
		s := valid
		s.Kind = "B"

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "text is required", fields["text"])
	})

	t.Run("minwords", func(t *testing.T) {
		s := valid
		s.Kind = "B"
		s.Text = "only two"

		fields := GetValidationFields(ValidateStruct(&s))
		assert.Equal(t, "text must contain at least 3 words", fields["text"])

		s.Text = "now there are four"
		assert.NoError(t, ValidateStruct(&s))
	})
}

func TestValidationErrorMessagesSorted(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"b": "second", "a": "first"}}
	assert.Equal(t, []string{"first", "second"}, err.Messages())
}

func TestCountWords(t *testing.T) {
	assert.Equal(t, 0, CountWords("   "))
	assert.Equal(t, 3, CountWords(" one\ttwo\nthree "))
	assert.Equal(t, 500, CountWords(strings.Repeat("word ", 500)))
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("123e4567-e89b-12d3-a456-426614174000"))
	assert.Error(t, ValidateUUID("nope"))
}
