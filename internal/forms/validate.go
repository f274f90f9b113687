package forms

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// FieldErrors maps json field names to a message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

// Has reports whether name failed validation.
func (fe FieldErrors) Has(name string) bool {
	_, ok := fe[name]
	return ok
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return jsonName(f)
	})
	return v
}

// Validator adapts the package validator to echo's Validator interface.
type Validator struct{}

func (Validator) Validate(i interface{}) error {
	return Validate(i)
}

// Validate checks the validate tags of v. It returns FieldErrors when a rule
// fails and nil otherwise.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := FieldErrors{}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = message(fe)
		}
	}
	return out
}

// ValidateFields is Validate restricted to the named fields, for partial
// updates that only carry the fields being changed.
func ValidateFields(v interface{}, names []string) error {
	err := Validate(v)
	fe, ok := err.(FieldErrors)
	if !ok {
		return err
	}
	keep := FieldErrors{}
	for _, n := range names {
		if msg, ok := fe[n]; ok {
			keep[n] = msg
		}
	}
	if len(keep) == 0 {
		return nil
	}
	return keep
}

func message(fe validator.FieldError) string {
	isText := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max", "lte":
		if isText {
			return fmt.Sprintf("Must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at most %s", fe.Param())
	case "min", "gte":
		if isText {
			return fmt.Sprintf("Must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s", fe.Param())
	case "oneof":
		return "Must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "url":
		return "Must be a valid URL"
	}
	return "Invalid value"
}
