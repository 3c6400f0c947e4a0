package apperror

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// FromValidator converts validator field errors into ValidationErrors.
// Other errors are returned unchanged.
func FromValidator(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(ValidationErrors, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fmt.Sprintf("Field '%s' failed validation tag '%s'", fe.Field(), fe.Tag())
	}

	return out
}
