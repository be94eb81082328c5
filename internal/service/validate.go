package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dtroode/securemail-server/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs struct tag validation and reports failures as *model.ValidationError.
func validateStruct(v any) error {
	return toValidationError(validate.Struct(v), "")
}

// validateVar validates a single value under the given field name.
func validateVar(field string, value any, tag string) error {
	return toValidationError(validate.Var(value, tag), field)
}

func toValidationError(err error, field string) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &model.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		name := field
		if name == "" {
			name = toSnake(fe.Field())
		}
		out.Fields[name] = fe.Tag()
	}
	return out
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
