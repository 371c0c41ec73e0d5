package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to interpret phone numbers written without a country code.
const DefaultPhoneRegion = "US"

type inputValidator struct {
	structs *validator.Validate
}

func newInputValidator(region string) *inputValidator {
	if region == "" {
		region = DefaultPhoneRegion
	}
	region = strings.ToUpper(region)

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPossiblePhone(fl.Field().String(), region)
	}); err != nil {
		panic(fmt.Sprintf("register phone validation: %v", err))
	}
	return &inputValidator{structs: v}
}

// IsPossiblePhone reports whether raw can be dialled as written, interpreting
// numbers without a country code in region.
func IsPossiblePhone(raw, region string) bool {
	parsed, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return false
	}
	return phonenumbers.IsPossibleNumber(parsed)
}

// validate runs the struct tags of LeadInput and reports failures keyed by the
// wire name of each field.
func (v *inputValidator) validate(input LeadInput) FieldErrors {
	fieldErrors := FieldErrors{}

	err := v.structs.Struct(input)
	if err == nil {
		return fieldErrors
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		fieldErrors.add("payload", err.Error())
		return fieldErrors
	}

	for _, fe := range validationErrs {
		field := wireName(fe.Namespace())
		fieldErrors.add(field, messageFor(field, fe))
	}
	return fieldErrors
}

// wireName turns "LeadInput.Positions[0].LenderName" into "positions[0].lenderName".
func wireName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToLower(part[:1]) + part[1:]
	}
	return strings.Join(parts, ".")
}

func messageFor(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "phone":
		return field + " must be a valid phone number"
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
