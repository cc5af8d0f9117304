package server

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// fieldErrors validates s and returns a message per failing field, or nil.
// The second result carries the failing tag per field for callers that map
// tags to their own codes.
func fieldErrors(s any) (map[string]string, map[string]string) {
	err := validate.Struct(s)
	if err == nil {
		return nil, nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}, nil
	}

	msgs := make(map[string]string, len(verrs))
	tags := make(map[string]string, len(verrs))
	for _, e := range verrs {
		msgs[e.Field()] = friendlyMessage(e)
		tags[e.Field()] = e.Tag()
	}
	return msgs, tags
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "ne":
		return fmt.Sprintf("must not be %q", e.Param())
	default:
		return fmt.Sprintf("failed %s validation", e.Tag())
	}
}
