package application

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/draftea/order-system/order-service/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		// cannot fail: the tags are new and the functions are non-nil
		_ = validate.RegisterValidation("positive_decimal", func(fl validator.FieldLevel) bool {
			value, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && value.IsPositive()
		})
		_ = validate.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			value, ok := fl.Field().Interface().(decimal.Decimal)
			return ok && domain.IsMoney(value)
		})
	})

	return validate
}

// validateCommand checks a command against its validate tags and reports
// the first violation as an invalid order
func validateCommand(cmd interface{}) error {
	err := getValidator().Struct(cmd)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return errors.Wrap(domain.ErrInvalidOrder, err.Error())
	}

	fe := validationErrors[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return errors.Wrapf(domain.ErrInvalidOrder, "%s is required", field)
	case "min":
		return errors.Wrapf(domain.ErrInvalidOrder, "%s must have at least %s entries", field, fe.Param())
	case "gt":
		return errors.Wrapf(domain.ErrInvalidOrder, "%s must be greater than %s", field, fe.Param())
	case "positive_decimal":
		return errors.Wrapf(domain.ErrInvalidOrder, "%s must be positive", field)
	case "money":
		return errors.Wrapf(domain.ErrInvalidOrder, "%s must have at most %d decimal places", field, domain.MoneyScale)
	default:
		return errors.Wrapf(domain.ErrInvalidOrder, "%s failed %s validation", field, fe.Tag())
	}
}
