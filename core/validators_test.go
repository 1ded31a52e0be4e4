package core_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pta/core"
)

func newValidator() (*validator.Validate, func(error) map[string]string) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, func(err error) map[string]string {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Translate(translator)
		}
		return fields
	}
}

func strPtr(s string) *string { return &s }

func TestNullUUIDValidation(t *testing.T) {
	validate, translate := newValidator()

	type link struct {
		ClassID *string `json:"class_id" validate:"omitempty,nulluuid"`
	}
	tests := []struct {
		name    string
		classID *string
		wantErr bool
	}{
		{"unchanged", nil, false},
		{"cleared", strPtr(""), false},
		{"uuid", strPtr("6f1c2a4e-9b1d-4c55-8d0e-2b7a9f3c1e77"), false},
		{"malformed", strPtr("abc"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(link{ClassID: tt.classID})
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, map[string]string{"class_id": "invalid value"}, translate(err))
		})
	}
}

func TestValidatorFieldNames(t *testing.T) {
	validate, translate := newValidator()

	type filter struct {
		ClassID string `query:"class_id" validate:"omitempty,uuid"`
		Name    string `json:"name" query:"q" validate:"required"`
	}
	err := validate.Struct(filter{ClassID: "abc"})
	require.Error(t, err)
	assert.Equal(t, map[string]string{
		"class_id": "invalid value",
		"name":     "this field is required",
	}, translate(err))
}
