package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"inmoback/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("plan_type", validatePlanType)
	validate.RegisterValidation("plan_tier", validatePlanTier)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct validates a struct using validator tags
func ValidateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func validatePlanType(fl validator.FieldLevel) bool {
	return models.ValidPlanType(fl.Field().String())
}

func validatePlanTier(fl validator.FieldLevel) bool {
	return models.ValidPlanTier(fl.Field().String())
}

// formatValidationErrors formats validation errors for better readability
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, getValidationMessage(e))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}

// getValidationMessage returns a user-friendly validation message
func getValidationMessage(e validator.FieldError) string {
	field := e.Field()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, e.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "plan_type":
		return fmt.Sprintf("%s must be one of PROPTECH, NETWORK", field)
	case "plan_tier":
		return fmt.Sprintf("%s must be one of FREE, INICIAL, INTERMEDIO, PREMIUM", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
