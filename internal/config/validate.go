package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	defaults "github.com/xtxerr/medallion/config"
	merrors "github.com/xtxerr/medallion/internal/errors"
)

var validate = newValidator()

// newValidator reports fields by their YAML keys.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				errs = append(errs, merrors.NewValidation(fieldPath(fe), fe.Tag()))
			}
		} else {
			errs = append(errs, err)
		}
	}

	// Input
	if err := c.Input.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("input: %w", err))
	}

	// Layout. Publishing replaces the whole output directory, so it must not
	// hold the lake or the feeds.
	if c.Output.Dir != "" {
		for _, p := range []struct{ key, path string }{
			{"lake.dir", c.Lake.Dir},
			{"input.orders", c.Input.Orders},
			{"input.products", c.Input.Products},
		} {
			if p.path != "" && within(c.Output.Dir, p.path) {
				errs = append(errs, merrors.NewValidation("output.dir", "must not contain "+p.key))
			}
		}
	}

	if name := c.Output.Database.File; name != "" && filepath.Base(name) != name {
		errs = append(errs, merrors.NewValidation("output.database.file", "must be a file name, not a path"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks the input configuration.
func (c *InputConfig) Validate() error {
	if c.Delimiter == "" || c.Delimiter == defaults.DelimiterAuto {
		return nil
	}
	r, size := utf8.DecodeRuneInString(c.Delimiter)
	if size != len(c.Delimiter) {
		return merrors.NewValidation("delimiter", "must be a single character or \"auto\"")
	}
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return merrors.NewValidation("delimiter", fmt.Sprintf("%q cannot be used", r))
	}
	return nil
}

// DelimiterRune returns the configured delimiter, or 0 for auto-detection.
func (c *InputConfig) DelimiterRune() rune {
	if c.Delimiter == defaults.DelimiterAuto {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// within reports whether path is dir or lies below it. Both are made
// absolute against the working directory first.
func within(dir, path string) bool {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absDir, absPath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// fieldPath maps a validator namespace (Config.output.database.driver) to the
// YAML key path (output.database.driver).
func fieldPath(fe validator.FieldError) string {
	_, path, ok := strings.Cut(fe.Namespace(), ".")
	if !ok {
		return fe.Field()
	}
	return path
}
