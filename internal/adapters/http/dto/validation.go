package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrValidation wraps every rule failure found after binding.
	ErrValidation = errors.New("validation failed")

	// ErrBinding wraps body and query parse failures.
	ErrBinding = errors.New("binding failed")
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field errors are reported under
// their JSON names, and decimal.Decimal fields validate as numbers so
// loanAmount can carry gt=0.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}

			return name
		})

		validate.RegisterCustomTypeFunc(func(v reflect.Value) any {
			if d, ok := v.Interface().(decimal.Decimal); ok {
				return d.InexactFloat64()
			}

			return nil
		}, decimal.Decimal{})

		_ = validate.RegisterValidation("uuid", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := uuid.Parse(s)

			return err == nil
		})
		_ = validate.RegisterValidation("notempty", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})

	return validate
}

// Validate runs the struct's tag rules.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}

// Validatable is implemented by requests with rules that tags cannot express.
type Validatable interface {
	Validate() error
}

// ValidateAll runs the tag rules, then Validate if v implements Validatable.
func ValidateAll(v any) error {
	if err := Validate(v); err != nil {
		return err
	}

	if rules, ok := v.(Validatable); ok {
		if err := rules.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
	}

	return nil
}

// BindAndValidate decodes the JSON body into v and validates it.
func BindAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return ValidateAll(v)
}

// BindQueryAndValidate decodes query parameters into v and validates it.
func BindQueryAndValidate(c *gin.Context, v any) error {
	if err := c.ShouldBindQuery(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBinding, err)
	}

	return Validate(v)
}

// IsValidationError reports whether err carries validator field errors.
func IsValidationError(err error) bool {
	var fieldErrs validator.ValidationErrors
	return errors.As(err, &fieldErrs)
}

// ValidationErrors flattens validator field errors into field -> message.
// Slice elements are keyed like "to[1]".
func ValidationErrors(err error) map[string]string {
	out := make(map[string]string)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return out
	}

	for _, fe := range fieldErrs {
		out[fe.Field()] = message(fe)
	}

	return out
}

var messages = map[string]string{
	"required": "this field is required",
	"notempty": "must not be empty",
	"email":    "must be a valid email address",
	"uuid":     "must be a valid UUID",
	"url":      "must be a valid URL",
	"oneof":    "must be one of: %s",
	"gt":       "must be greater than %s",
	"gte":      "must be greater than or equal to %s",
	"lt":       "must be less than %s",
	"lte":      "must be less than or equal to %s",
}

func message(fe validator.FieldError) string {
	tag, param := fe.Tag(), fe.Param()

	if tag == "min" || tag == "max" {
		unit := ""
		if fe.Kind() == reflect.String {
			unit = " characters"
		}
		if tag == "min" {
			return "must be at least " + param + unit
		}

		return "must be at most " + param + unit
	}

	tmpl, ok := messages[tag]
	if !ok {
		return "failed validation: " + tag
	}
	if strings.Contains(tmpl, "%s") {
		return fmt.Sprintf(tmpl, param)
	}

	return tmpl
}
