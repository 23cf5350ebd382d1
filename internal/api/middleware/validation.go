package middleware

import (
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"watchme-asr/internal/api/errors"
)

// Validator interface for domain validation
type Validator interface {
	Validate() error
}

var registerJSONNames sync.Once

// useJSONFieldNames makes validation errors report json tag names.
func useJSONFieldNames() {
	registerJSONNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(field.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return field.Name
		})
	})
}

// ValidateRequest validates both struct tags and domain rules
func ValidateRequest(c *gin.Context, req interface{}) error {
	useJSONFieldNames()

	if err := c.ShouldBindJSON(req); err != nil {
		return validationError(err, "request", "invalid JSON format")
	}
	return validateDomain(req)
}

// ValidateQuery validates query parameters
func ValidateQuery(c *gin.Context, req interface{}) error {
	useJSONFieldNames()

	if err := c.ShouldBindQuery(req); err != nil {
		return validationError(err, "query", "invalid query parameters")
	}
	return validateDomain(req)
}

func validateDomain(req interface{}) error {
	if v, ok := req.(Validator); ok {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validationError(err error, fallbackField, fallbackMessage string) error {
	fields := make(map[string]string)

	var validationErrs validator.ValidationErrors
	if stderrors.As(err, &validationErrs) {
		for _, fieldError := range validationErrs {
			field := fieldError.Field()
			switch fieldError.Tag() {
			case "required", "required_without":
				fields[field] = "is required"
			case "datetime":
				fields[field] = "must match " + fieldError.Param()
			case "min":
				fields[field] = "is too short"
			case "max":
				fields[field] = "is too long"
			case "oneof":
				fields[field] = "must be one of " + fieldError.Param()
			default:
				fields[field] = "is invalid"
			}
		}
	} else {
		fields[fallbackField] = fallbackMessage
	}

	return errors.NewValidationError("Validation failed", fields)
}
