package weather

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := RegisterCoordinateRules(validate); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// RegisterCoordinateRules installs the latitude and longitude rules on v,
// replacing the built-in ones so the sentinel 999 is rejected as well.
func RegisterCoordinateRules(v *validator.Validate) error {
	if err := v.RegisterValidation("latitude", validateLatitude); err != nil {
		return err
	}
	return v.RegisterValidation("longitude", validateLongitude)
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90.0 && lat <= 90.0 && lat != SentinelCoordinate
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180.0 && lon <= 180.0 && lon != SentinelCoordinate
}

func validateReading(r Reading) []string {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		reasons = append(reasons, readingErrorMessage(fe))
	}
	return reasons
}

func readingErrorMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "temperature":
		return fmt.Sprintf("temperature %v°C is out of range (-50°C to 60°C)", fe.Value())
	case "humidity":
		return fmt.Sprintf("humidity %v is invalid (must be between 0 and 1)", fe.Value())
	case "wind_speed":
		return fmt.Sprintf("wind speed %v km/h is invalid (must be between 0 and 200 km/h)", fe.Value())
	case "condition":
		return "condition must not be empty"
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
