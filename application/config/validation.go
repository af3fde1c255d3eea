package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/reglet-dev/reglet-extensions/domain/errors"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their YAML names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks c against its struct tags. Each violation is reported as
// a *errors.ConfigError naming the offending field.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &domainerrors.ConfigError{Err: err}
	}

	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, &domainerrors.ConfigError{
			Field: fieldPath(fe.Namespace()),
			Err:   fmt.Errorf("failed on %q rule (value %v)", fe.Tag(), fe.Value()),
		})
	}
	return errors.Join(errs...)
}

// fieldPath drops the root struct name: "Config.log.level" -> "log.level".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return rest
}
