package elfmodel

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is matched by every *NotFoundError.
	ErrNotFound = errors.New("not found")
	// ErrNotUnique is matched by every *NotUniqueError.
	ErrNotUnique = errors.New("not unique")
)

// ConfigError reports an unusable input path. It is returned before any
// parsing is attempted.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("firmware %q: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// StructuralError reports a missing or malformed part of the ELF container.
type StructuralError struct {
	Path      string
	Component string
	Err       error
}

func (e *StructuralError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed %s: %v", e.Component, e.Err)
	}
	return fmt.Sprintf("%s: malformed %s: %v", e.Path, e.Component, e.Err)
}

func (e *StructuralError) Unwrap() error {
	return e.Err
}

// NotFoundError is returned by queries naming an absent symbol or section.
type NotFoundError struct {
	Kind string // "symbol" or "section"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' does not exist in ELF", e.Kind, e.Name)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NotUniqueError is returned when a unique-symbol query matches several entries.
type NotUniqueError struct {
	Name  string
	Count int
}

func (e *NotUniqueError) Error() string {
	return fmt.Sprintf("symbol '%s' is not uniquely named (%d entries)", e.Name, e.Count)
}

func (e *NotUniqueError) Is(target error) bool {
	return target == ErrNotUnique
}

func structural(component string, format string, args ...any) *StructuralError {
	return &StructuralError{Component: component, Err: fmt.Errorf(format, args...)}
}

func withPath(err error, path string) error {
	var se *StructuralError
	if errors.As(err, &se) && se.Path == "" {
		se.Path = path
	}
	return err
}
