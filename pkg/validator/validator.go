package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

// ValidationError is one failed rule, keyed by the JSON name of the field.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// Message renders the failure for API clients, e.g. "reviewer name is required".
func (e ValidationError) Message() string {
	field := FieldLabel(e.Field)
	switch e.Tag {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param)
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param)
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, e.Param)
	}
	if e.Param != "" {
		return fmt.Sprintf("%s failed validation: %s=%s", field, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s failed validation: %s", field, e.Tag)
}

// ValidationErrors collects every failed rule of one payload.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "invalid request payload"
	}
	messages := make([]string, len(v))
	for i, failure := range v {
		messages[i] = failure.Message()
	}
	return strings.Join(messages, "; ")
}

// FieldLabel turns a JSON field name into the words used in messages.
func FieldLabel(name string) string {
	if name == "" {
		return "field"
	}
	return strings.ToLower(strings.ReplaceAll(name, "_", " "))
}

// ValidateStruct runs the validate tags of s, including the catalogue rules.
func ValidateStruct(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	failures := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		failures = append(failures, ValidationError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return failures
}

// RegisterValidation adds a custom rule to the shared validator.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)

		// Registration only fails for empty or reserved tag names.
		_ = validate.RegisterValidation(TagISBN, func(fl validator.FieldLevel) bool {
			return ValidISBN(fl.Field().String())
		})
		_ = validate.RegisterValidation(TagRating, func(fl validator.FieldLevel) bool {
			return ValidRating(int(fl.Field().Int()))
		})
	})
	return validate
}
