package validator

import "github.com/go-playground/validator/v10"

var validate = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its `validate` tags using the shared
// validator instance.
func Struct(s any) error {
	return validate.Struct(s)
}
