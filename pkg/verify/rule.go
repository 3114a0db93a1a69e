package verify

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/samber/lo"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/elfmodel"
)

// Rule is a single structural check.
type Rule interface {
	Name() string
	Description() string
	Check(ctx context.Context, m *elfmodel.Model) error
}

// CheckFunc is the body of a rule built with NewRule.
type CheckFunc func(m *elfmodel.Model) error

type funcRule struct {
	name string
	desc string
	fn   CheckFunc
}

// NewRule wraps fn as a Rule.
func NewRule(name, description string, fn CheckFunc) Rule {
	return &funcRule{name: name, desc: description, fn: fn}
}

func (r *funcRule) Name() string        { return r.name }
func (r *funcRule) Description() string { return r.desc }

func (r *funcRule) Check(_ context.Context, m *elfmodel.Model) error {
	return r.fn(m)
}

// Without returns rules minus those named in skip.
func Without(rules []Rule, skip ...string) []Rule {
	return lo.Reject(rules, func(r Rule, _ int) bool {
		return lo.Contains(skip, r.Name())
	})
}

// expectations collects field mismatches of one symbol or section so a rule
// reports all of them at once.
type expectations struct {
	subject string
	errs    *multierror.Error
}

func expect(subject string) *expectations {
	return &expectations{subject: subject}
}

func (e *expectations) addr(field string, got, want uint64) {
	if got != want {
		e.failf("%s = %#010x, want %#010x", field, got, want)
	}
}

func (e *expectations) size(field string, got, want uint64) {
	if got != want {
		e.failf("%s = %d, want %d", field, got, want)
	}
}

func (e *expectations) str(field, got, want string) {
	if got != want {
		e.failf("%s = %s, want %s", field, got, want)
	}
}

func (e *expectations) that(ok bool, format string, args ...any) {
	if !ok {
		e.failf(format, args...)
	}
}

func (e *expectations) failf(format string, args ...any) {
	e.errs = multierror.Append(e.errs, fmt.Errorf("%s: "+format, append([]any{e.subject}, args...)...))
}

func (e *expectations) err() error {
	if e.errs == nil {
		return nil
	}
	e.errs.ErrorFormat = inlineFormat
	return e.errs.ErrorOrNil()
}

// inlineFormat renders a multierror on one line for report rows.
func inlineFormat(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
