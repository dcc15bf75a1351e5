package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"commerce-assistant/pkg/rag"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest checks the validate tags of a request body. Failures wrap
// rag.ErrValidation so the error handler answers 400.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", rag.ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", rag.ErrValidation, strings.Join(msgs, "; "))
}
