package middleware

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/skillswap-project/server-beta/internal/schemas"
	"github.com/skillswap-project/server-beta/internal/utils"
)

// ValidateAndSanitizeStruct binds the JSON body into a fresh copy of the
// prototype, strips markup from its string fields and validates it. On
// success the sanitized payload is stored in the context for the handler.
func ValidateAndSanitizeStruct(prototype interface{}) gin.HandlerFunc {
	prototypeType := reflect.TypeOf(prototype).Elem()

	return func(c *gin.Context) {
		obj := reflect.New(prototypeType).Interface()

		if err := c.ShouldBindJSON(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: *schemas.BadRequest})
			return
		}

		validator := utils.GetValidator()
		if err := validator.SanitizeData(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: *schemas.BadRequest})
			return
		}

		if err := validator.Validate.Struct(obj); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, &schemas.ErrorDTO{Error: *validationError(err)})
			return
		}

		c.Set(utils.SanitizedPayloadKey.String(), obj)
		c.Next()
	}
}

// validationError maps a validator error onto the matching error code.
// Malformed availability slots get their own code, everything else stays generic.
func validationError(err error) *schemas.CustomError {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			if fieldErr.Tag() == "time_slot_validation" {
				return schemas.InvalidTimeSlots
			}
		}
	}

	return schemas.BadRequest
}
