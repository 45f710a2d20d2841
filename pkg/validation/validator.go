package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	err := validate.RegisterValidation("imei", validateIMEI)
	if err != nil {
		return
	}
	err = validate.RegisterValidation("phone", validatePhone)
	if err != nil {
		return
	}
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// IMEIs are 15 digits; allow 14-16 to cover MEID-style identifiers some
// older units report.
var imeiRegex = regexp.MustCompile(`^[0-9]{14,16}$`)

func validateIMEI(fl validator.FieldLevel) bool {
	return imeiRegex.MatchString(fl.Field().String())
}

var phoneRegex = regexp.MustCompile(`^\+?[0-9\s\-().]{7,20}$`)

func validatePhone(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // emptiness is handled by required tags
	}
	return phoneRegex.MatchString(value)
}
