package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		requestBody string
		wantErr     bool
		errContains string
	}{
		{name: "valid json", requestBody: `{"name": "test"}`},
		{name: "invalid json", requestBody: `{"name": "test",}`, wantErr: true, errContains: "invalid character"},
		{name: "empty body", requestBody: "", wantErr: true, errContains: "EOF"},
		{name: "oversized body", requestBody: `{"name":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/user/", strings.NewReader(tc.requestBody))
			var target struct {
				Name string `json:"name"`
			}

			err := DecodeJSON(req, &target)

			if tc.wantErr {
				require.Error(t, err)
				if tc.errContains != "" {
					assert.Contains(t, err.Error(), tc.errContains)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "test", target.Name)
		})
	}
}

type selfValidating struct{ called bool }

func (s *selfValidating) Validate() error {
	s.called = true
	return nil
}

func TestValidateRequest(t *testing.T) {
	t.Run("uses Validate method when present", func(t *testing.T) {
		v := &selfValidating{}
		assert.NoError(t, ValidateRequest(v))
		assert.True(t, v.called)
	})

	t.Run("reports json field names", func(t *testing.T) {
		req := struct {
			Email string `json:"email" validate:"required,email"`
		}{Email: "nope"}

		err := ValidateRequest(req)

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "email", verrs[0].Field())
		assert.Equal(t, "email", verrs[0].Tag())
	})
}

func TestValidatePhone(t *testing.T) {
	valid := []string{"12345678", "+1 (555) 010-2030", "555.010.2030 x12", "1-770-736-8031 x56442"}
	invalid := []string{"", "123", "phone-number", "+1 555 CALL NOW", "12345678#"}

	for _, p := range valid {
		assert.NoError(t, ValidateVar(p, "phone"), p)
	}
	for _, p := range invalid {
		assert.Error(t, ValidateVar(p, "phone"), p)
	}
}
