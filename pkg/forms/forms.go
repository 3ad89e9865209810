package forms

import (
	"errors"
	"net/url"
	"strings"

	"github.com/getzep/ducks/pkg/models"
)

// DuckForm holds the submitted values and errors of the duck creation form.
type DuckForm struct {
	Name        string
	Description string
	Errors      models.FieldErrors
}

func NewDuckForm() *DuckForm {
	return &DuckForm{Errors: models.FieldErrors{}}
}

// BindDuckForm reads and trims the duck fields from submitted form values.
func BindDuckForm(values url.Values) *DuckForm {
	return &DuckForm{
		Name:        strings.TrimSpace(values.Get("name")),
		Description: strings.TrimSpace(values.Get("description")),
		Errors:      models.FieldErrors{},
	}
}

func (f *DuckForm) Request() *models.CreateDuckRequest {
	return &models.CreateDuckRequest{
		Name:        f.Name,
		Description: f.Description,
	}
}

// Validate populates Errors and reports whether the form is valid.
func (f *DuckForm) Validate() bool {
	return f.SetErrors(Validate(f.Request()))
}

// SetErrors copies the field errors of a validation error onto the form.
// It reports whether err was nil.
func (f *DuckForm) SetErrors(err error) bool {
	f.Errors = fieldErrors(err)
	return err == nil
}

func (f *DuckForm) IsValid() bool {
	return len(f.Errors) == 0
}

// FactForm holds the submitted value and errors of the fact creation form.
type FactForm struct {
	Fact   string
	Errors models.FieldErrors
}

func NewFactForm() *FactForm {
	return &FactForm{Errors: models.FieldErrors{}}
}

func BindFactForm(values url.Values) *FactForm {
	return &FactForm{
		Fact:   strings.TrimSpace(values.Get("fact")),
		Errors: models.FieldErrors{},
	}
}

func (f *FactForm) Request() *models.CreateFactRequest {
	return &models.CreateFactRequest{Fact: f.Fact}
}

func (f *FactForm) Validate() bool {
	return f.SetErrors(Validate(f.Request()))
}

func (f *FactForm) SetErrors(err error) bool {
	f.Errors = fieldErrors(err)
	return err == nil
}

func (f *FactForm) IsValid() bool {
	return len(f.Errors) == 0
}

func fieldErrors(err error) models.FieldErrors {
	if err == nil {
		return models.FieldErrors{}
	}
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Fields
	}
	return models.FieldErrors{"__all__": {err.Error()}}
}
