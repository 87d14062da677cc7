package validation

import (
	"reflect"
	"strings"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// report fields by their json/query names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	v.RegisterStructValidation(verifyStructValidation, VerifyRequest{})

	return v
}

// verifyStructValidation rejects codes that are blank once surrounding whitespace is
// trimmed. Anything else is left to the code comparison.
func verifyStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(VerifyRequest)

	code := strings.TrimSpace(req.VerificationCode)
	if code == "" {
		sl.ReportError(req.VerificationCode, "verificationCode", "VerificationCode", "required", "")
	}
}
