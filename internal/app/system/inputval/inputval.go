// Package inputval validates request payloads with struct tags and turns
// failures into per-field messages for the JSON envelope.
package inputval

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/dalemusser/villahub/internal/domain/models"
	"github.com/dalemusser/villahub/internal/domain/roles"
	"github.com/dalemusser/villahub/internal/domain/ticketflow"
	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func v() *validator.Validate {
	once.Do(func() {
		val := validator.New(validator.WithRequiredStructEnabled())
		val.RegisterTagNameFunc(fieldName)

		register := func(tag string, ok func(string) bool) {
			_ = val.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return ok(fl.Field().String())
			})
		}
		register("villa_role", func(s string) bool { _, ok := roles.Parse(s); return ok })
		register("capability", func(s string) bool { _, ok := roles.ParseCapability(s); return ok })
		register("listing_status", models.ValidListingStatus)
		register("ticket_status", func(s string) bool { _, ok := ticketflow.Parse(s); return ok })
		register("priority", func(s string) bool {
			switch s {
			case models.PriorityLow, models.PriorityMedium, models.PriorityHigh, models.PriorityUrgent:
				return true
			}
			return false
		})
		register("notblank", func(s string) bool { return strings.TrimSpace(s) != "" })
		validate = val
	})
	return validate
}

// fieldName reports fields by their json (or form) name.
func fieldName(f reflect.StructField) string {
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
}

// Struct validates s. It returns nil when valid, otherwise a message per
// failing field.
func Struct(s any) map[string]string {
	err := v().Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(ve))
	for _, fe := range ve {
		out[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "villa_role":
		return "is not a known community role"
	case "listing_status", "ticket_status", "priority", "capability":
		return "is not a valid " + strings.ReplaceAll(fe.Tag(), "_", " ")
	default:
		return "is invalid"
	}
}

// IsValidEmail reports whether s is a bare email address.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && v().Var(s, "email") == nil
}

// IsValidHTTPURL reports whether s is an absolute http or https URL.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || v().Var(s, "url") != nil {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
