package core

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"maintcore/pkg/domain"
)

// entityValidator checks entity struct tags and reports JSON field names.
var entityValidator = newEntityValidator()

func newEntityValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateEntity returns the first field violation of v as a ValidationError.
func validateEntity(entity domain.EntityType, v any) error {
	return firstViolation(entity, v, false)
}

// validateDraft is validateEntity for a record whose id is generated later.
func validateDraft(entity domain.EntityType, v any) error {
	return firstViolation(entity, v, true)
}

func firstViolation(entity domain.EntityType, v any, draft bool) error {
	err := entityValidator.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.ValidationError{Entity: entity, Reason: err.Error()}
	}
	for _, fe := range fieldErrs {
		if draft && fe.Field() == "id" && fe.Tag() == "required" {
			continue
		}
		return domain.ValidationError{Entity: entity, Field: fe.Field(), Reason: reason(fe)}
	}
	return nil
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gte":
		return "must be at least " + fe.Param()
	case "lte":
		return "must be at most " + fe.Param()
	case "email":
		return "must be an email address"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// required rejects a blank argument.
func required(entity domain.EntityType, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return domain.ValidationError{Entity: entity, Field: field, Reason: "is required"}
	}
	return nil
}

// immutable rejects patches touching fields owned by the lifecycle.
func immutable(entity domain.EntityType, patch domain.Patch, fields ...string) error {
	for _, f := range fields {
		if _, ok := patch[f]; ok {
			return domain.ValidationError{Entity: entity, Field: f, Reason: "cannot be changed directly"}
		}
	}
	return nil
}
