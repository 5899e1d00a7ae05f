package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/MarianKovalyshyn/planetarium-api-service/internal/repository"
)

// Validator adapts go-playground/validator to echo.  Field names in
// reported errors are the JSON names of the request body.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

var _ echo.Validator = (*Validator)(nil)

// Validate reports the first failing field as a *repository.ValidationError.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) || len(fields) == 0 {
		return err
	}
	fe := fields[0]
	return repository.NewValidationError(fieldPath(fe), describe(fe))
}

// fieldPath drops the struct name from the namespace, so nested list
// elements read like "tickets[1].row".
func fieldPath(fe validator.FieldError) string {
	_, rest, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return rest
}

func describe(fe validator.FieldError) string {
	numeric := false
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		numeric = true
	}
	switch fe.Tag() {
	case "required":
		return "this field is required."
	case "min", "gte":
		if numeric {
			return fmt.Sprintf("ensure this value is greater than or equal to %s.", fe.Param())
		}
		return fmt.Sprintf("ensure this field has at least %s characters.", fe.Param())
	case "max", "lte":
		if numeric {
			return fmt.Sprintf("ensure this value is less than or equal to %s.", fe.Param())
		}
		return fmt.Sprintf("ensure this field has no more than %s characters.", fe.Param())
	case "email":
		return "enter a valid email address."
	}
	return fmt.Sprintf("failed on the %q rule.", fe.Tag())
}

// bindValid decodes the body into dst and runs the registered validator.
func bindValid(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return err
	}
	return c.Validate(dst)
}

// required builds the error for a field that PUT or POST must carry.
func required(field string) error {
	return repository.NewValidationError(field, "this field is required.")
}

func blank(field string) error {
	return repository.NewValidationError(field, "this field may not be blank.")
}
