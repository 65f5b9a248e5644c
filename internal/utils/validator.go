package utils

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/truemail-rb/truemail-go"

	"github.com/skillswap-project/server-beta/internal/schemas"
)

type Validator struct {
	Validate    *validator.Validate
	VerifyEmail func(email string) bool
	policy      *bluemonday.Policy
}

var instance *Validator
var configuration *truemail.Configuration
var once sync.Once

func GetValidator() *Validator {
	once.Do(func() {
		configuration, _ = truemail.NewConfiguration(truemail.ConfigurationAttr{
			VerifierEmail:         "team@mail.skillswap-project.tech",
			ValidationTypeDefault: "mx",
			SmtpFailFast:          true,
		})

		instance = &Validator{
			Validate:    validator.New(validator.WithRequiredStructEnabled()),
			VerifyEmail: validateEmail,
			policy:      bluemonday.StrictPolicy(),
		}

		registerCustomValidators(instance.Validate)
	})

	return instance
}

func validateEmail(email string) bool {
	return truemail.IsValid(email, configuration)
}

// SanitizeData strips markup from every string field of the given struct
// pointer, including strings nested in structs and slices of structs.
func (v *Validator) SanitizeData(obj interface{}) error {
	value := reflect.ValueOf(obj)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return errors.New("payload is not a struct pointer")
	}

	v.sanitizeValue(value.Elem())
	return nil
}

func (v *Validator) sanitizeValue(value reflect.Value) {
	switch value.Kind() {
	case reflect.String:
		if value.CanSet() {
			value.SetString(v.policy.Sanitize(value.String()))
		}
	case reflect.Struct:
		for i := 0; i < value.NumField(); i++ {
			v.sanitizeValue(value.Field(i))
		}
	case reflect.Slice:
		for i := 0; i < value.Len(); i++ {
			v.sanitizeValue(value.Index(i))
		}
	case reflect.Ptr:
		if !value.IsNil() {
			v.sanitizeValue(value.Elem())
		}
	}
}

func registerCustomValidators(v *validator.Validate) {
	err := v.RegisterValidation("password_validation", passwordValidation)
	if err != nil {
		return
	}

	err = v.RegisterValidation("time_slot_validation", timeSlotValidation)
	if err != nil {
		return
	}
}

func passwordValidation(fl validator.FieldLevel) bool {
	var upperLetter, lowerLetter, number bool

	value := fl.Field().String()
	for _, r := range value {
		if r > unicode.MaxASCII {
			return false
		}

		switch {
		case unicode.IsUpper(r):
			upperLetter = true
		case unicode.IsLower(r):
			lowerLetter = true
		case unicode.IsNumber(r):
			number = true
		}
	}

	return upperLetter && lowerLetter && number
}

func timeSlotValidation(fl validator.FieldLevel) bool {
	slots, ok := fl.Field().Interface().([]schemas.TimeSlot)
	if !ok {
		return false
	}

	return ValidateTimeSlots(slots) == nil
}

var weekdays = map[string]struct{}{
	"Monday":    {},
	"Tuesday":   {},
	"Wednesday": {},
	"Thursday":  {},
	"Friday":    {},
	"Saturday":  {},
	"Sunday":    {},
}

// ValidateTimeSlots checks that every slot names a weekday and carries
// parseable HH:MM times with start strictly before end. An empty list is valid.
func ValidateTimeSlots(slots []schemas.TimeSlot) error {
	for _, slot := range slots {
		if _, ok := weekdays[slot.Day]; !ok {
			return fmt.Errorf("unrecognized weekday %q", slot.Day)
		}

		start, err := time.Parse("15:04", slot.Start)
		if err != nil {
			return fmt.Errorf("invalid start time %q", slot.Start)
		}

		end, err := time.Parse("15:04", slot.End)
		if err != nil {
			return fmt.Errorf("invalid end time %q", slot.End)
		}

		if !start.Before(end) {
			return fmt.Errorf("slot on %s must start before it ends", slot.Day)
		}
	}

	return nil
}
