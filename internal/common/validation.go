package common

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/joseph-ayodele/docverify/constants"
)

// ValidationError represents validation failures
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator with the "doctype" tag registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		_ = v.RegisterValidation("doctype", func(fl validator.FieldLevel) bool {
			_, ok := constants.CanonicalDocumentType(fl.Field().String())
			return ok
		})
		validate = v
	})
	return validate
}

// ValidateStruct applies struct tags and returns an AppError wrapping ErrValidation
// listing every failing field.
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewAppError("VALIDATION_ERROR", "invalid request", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ve := ValidationError{Field: fe.Field(), Value: fe.Value(), Message: ruleMessage(fe)}
		msgs = append(msgs, ve.Error())
	}
	return NewAppError("VALIDATION_ERROR", strings.Join(msgs, "; "), ErrValidation)
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "doctype":
		return "must be one of " + strings.Join(constants.DocumentTypesAsStringSlice(), ", ")
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
