package checkout

import (
	"reflect"
	"regexp"
	"strings"

	"crackerstore/internal/models"

	"github.com/go-playground/validator/v10"
)

var mobilePattern = regexp.MustCompile(`^\d{10}$`)

var fieldMessages = map[string]map[string]string{
	"name": {
		"required": "Customer name is required",
	},
	"mobile": {
		"required": "Mobile number is required",
		"mobile10": "Please enter a valid 10-digit mobile number",
	},
}

// newValidator returns a validator that knows the mobile10 rule and reports
// fields by their json names.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("mobile10", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateCustomer checks the trimmed customer info and returns field errors.
func validateCustomer(v *validator.Validate, info models.CustomerInfo) map[string]string {
	info.Name = strings.TrimSpace(info.Name)
	info.Mobile = strings.TrimSpace(info.Mobile)

	fields := make(map[string]string)
	if err := v.Struct(info); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			fields["form"] = err.Error()
			return fields
		}
		for _, e := range verrs {
			msg, ok := fieldMessages[e.Field()][e.Tag()]
			if !ok {
				msg = "Field '" + e.Field() + "' failed on the '" + e.Tag() + "' tag"
			}
			fields[e.Field()] = msg
		}
	}
	return fields
}
