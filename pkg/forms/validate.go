package forms

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/getzep/ducks/pkg/models"
)

const (
	MsgRequired = "This field is required."
	msgMaxLen   = "Ensure this value has at most %s characters (it has %d)."
	msgInvalid  = "Enter a valid value."
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their submitted name rather than the Go field name
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a request struct against its validate tags. Every failing
// field is reported in the returned *models.ValidationError.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("failed to validate %T: %w", req, err)
	}

	fields := models.FieldErrors{}
	for _, fe := range validationErrors {
		fields.Add(fe.Field(), fieldMessage(fe))
	}

	return models.NewValidationError(fields)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "max":
		return fmt.Sprintf(msgMaxLen, fe.Param(), utf8.RuneCountInString(fmt.Sprint(fe.Value())))
	default:
		return msgInvalid
	}
}
