package shared

import (
	"encoding/json"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes bounds request bodies accepted by DecodeJSON.
const MaxBodyBytes = 1 << 20

// phoneRegex accepts digits with the usual separators and an optional
// extension marker.
var phoneRegex = regexp.MustCompile(`^\+?[0-9 ().\-x]+$`)

// Global validator instance for reuse
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// Registering a fixed tag on a fresh validator cannot fail.
	_ = v.RegisterValidation("phone", validatePhone)
	return v
}

// validatePhone requires the phone alphabet and at least seven digits.
func validatePhone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !phoneRegex.MatchString(s) {
		return false
	}
	digits := 0
	for _, c := range s {
		if c >= '0' && c <= '9' {
			digits++
		}
	}
	return digits >= 7
}

// DecodeJSON decodes the request body into the given struct.
func DecodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes)).Decode(v); err != nil {
		return err
	}
	return nil
}

// ValidateRequest validates the given struct using the validator package.
func ValidateRequest(v interface{}) error {
	// Check if the object implements the Validate interface
	if validator, ok := v.(interface{ Validate() error }); ok {
		return validator.Validate()
	}

	// Otherwise, use the struct validator
	return validate.Struct(v)
}

// ValidateVar validates a single value against a validator tag such as
// "email" or "phone".
func ValidateVar(value interface{}, tag string) error {
	return validate.Var(value, tag)
}
