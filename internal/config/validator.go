package config

import (
	"fmt"
	"strings"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/verify"
)

// Validator is the interface for validating configuration.
type Validator interface {
	Validate() error
}

// ValidationError represents a single validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MultiValidationError represents multiple validation errors.
type MultiValidationError struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (e *MultiValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}

	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("validation failed with %d errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		builder.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return builder.String()
}

// Validate checks the profile, including that every expression rule compiles.
func (p *Profile) Validate() error {
	var errors []ValidationError

	if p.Version == "" {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: "version is required",
		})
	} else if p.Version != SchemaVersion {
		errors = append(errors, ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version %q (want %q)", p.Version, SchemaVersion),
		})
	}

	if err := ValidateFormat(p.Format); err != nil {
		errors = append(errors, ValidationError{Field: "format", Message: err.Error()})
	}

	if err := ValidateLogLevel(p.Log.Level); err != nil {
		errors = append(errors, ValidationError{Field: "log.level", Message: err.Error()})
	}

	builtin := make(map[string]bool)
	for _, r := range verify.KL25ZRules() {
		builtin[r.Name()] = true
	}
	for i, name := range p.Builtin.Skip {
		if !builtin[name] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("builtin.skip[%d]", i),
				Message: fmt.Sprintf("unknown built-in rule %q", name),
			})
		}
	}

	seen := make(map[string]bool)
	for i, r := range p.Rules {
		field := fmt.Sprintf("rules[%d]", i)
		switch {
		case r.Name == "":
			errors = append(errors, ValidationError{Field: field + ".name", Message: "name is required"})
		case seen[r.Name]:
			errors = append(errors, ValidationError{Field: field + ".name", Message: fmt.Sprintf("duplicate rule name %q", r.Name)})
		case p.Builtin.Enabled && builtin[r.Name]:
			errors = append(errors, ValidationError{Field: field + ".name", Message: fmt.Sprintf("%q is a built-in rule", r.Name)})
		}
		seen[r.Name] = true

		if r.Expr == "" {
			errors = append(errors, ValidationError{Field: field + ".expr", Message: "expr is required"})
			continue
		}
		if _, err := verify.CompileExpr(r.Name, r.Description, r.Expr); err != nil {
			errors = append(errors, ValidationError{Field: field + ".expr", Message: err.Error()})
		}
	}

	if !p.Builtin.Enabled && len(p.Rules) == 0 {
		errors = append(errors, ValidationError{
			Field:   "rules",
			Message: "built-in rules are disabled and no rules are defined",
		})
	}

	if len(errors) > 0 {
		return &MultiValidationError{Errors: errors}
	}

	return nil
}
