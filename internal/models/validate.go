package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"writeit/internal/domain"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the notblank rule registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// Validate checks v against its struct tags. Failures wrap domain.ErrValidation.
func Validate(v any) error {
	if err := Validator().Struct(v); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			names := make([]string, 0, len(fields))
			for _, f := range fields {
				names = append(names, strings.ToLower(f.Field())+" ("+f.Tag()+")")
			}
			return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(names, ", "))
		}
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}
