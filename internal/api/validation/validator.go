package validation

import (
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"

	"github.com/otadrift/otadrift/internal/bundle"
)

var (
	channelRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,62}$`)
	sha256Regex  = regexp.MustCompile(`^[a-fA-F0-9]{64}$`)
)

// RegisterValidators registers custom validators
func RegisterValidators(v *validator.Validate) {
	v.RegisterValidation("platform", validatePlatform)
	v.RegisterValidation("channel", validateChannel)
	v.RegisterValidation("semver_range", validateSemverRange)
	v.RegisterValidation("sha256", validateSHA256)
}

// validatePlatform checks the value is a supported client platform
func validatePlatform(fl validator.FieldLevel) bool {
	return bundle.Platform(fl.Field().String()).Valid()
}

// validateChannel checks the release channel name shape
func validateChannel(fl validator.FieldLevel) bool {
	return channelRegex.MatchString(fl.Field().String())
}

// validateSemverRange checks the value parses as a version constraint,
// e.g. "1.2.3", "1.x", "~1.2.3" or ">=1.2.0 <2.0.0"
func validateSemverRange(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // exclusivity with the fingerprint field is checked elsewhere
	}
	_, err := semver.NewConstraint(value)
	return err == nil
}

// validateSHA256 checks the value is a hex-encoded SHA-256 digest
func validateSHA256(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return sha256Regex.MatchString(value)
}

// ValidationError represents a validation error
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// FormatValidationError formats validation errors into a user-friendly response
func FormatValidationError(err error) []ValidationError {
	var errors []ValidationError
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			errors = append(errors, ValidationError{
				Field: e.Field(),
				Tag:   e.Tag(),
				Value: e.Param(),
			})
		}
	}
	return errors
}
