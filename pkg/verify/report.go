package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/elfmodel"
)

// Verifier runs a fixed rule set against models.
type Verifier struct {
	rules  []Rule
	logger zerolog.Logger
}

// New creates a verifier for rules.
func New(logger zerolog.Logger, rules ...Rule) *Verifier {
	return &Verifier{
		rules:  rules,
		logger: logger.With().Str("component", "verify").Logger(),
	}
}

// Rules returns the rule names in run order.
func (v *Verifier) Rules() []string {
	return lo.Map(v.rules, func(r Rule, _ int) string { return r.Name() })
}

// Result is the outcome of one rule.
type Result struct {
	Rule        string `json:"rule"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Message     string `json:"message,omitempty"`
	err         error
}

// Err returns the rule failure, nil when the rule passed.
func (r Result) Err() error {
	return r.err
}

// Report is the outcome of one verification run.
type Report struct {
	SessionID string    `json:"session_id"`
	Firmware  string    `json:"firmware"`
	Digest    string    `json:"digest"`
	StartedAt time.Time `json:"started_at"`
	Duration  string    `json:"duration"`
	Results   []Result  `json:"results"`
	Passed    int       `json:"passed"`
	Failed    int       `json:"failed"`
}

// Run evaluates every rule against m. A failing rule does not stop the
// others; only context cancellation ends the run early, marking the remaining
// rules as failed.
func (v *Verifier) Run(ctx context.Context, m *elfmodel.Model) *Report {
	report := &Report{
		SessionID: uuid.New().String(),
		Firmware:  m.Path,
		Digest:    fmt.Sprintf("%016x", m.Digest),
		StartedAt: time.Now(),
		Results:   make([]Result, 0, len(v.rules)),
	}
	logger := v.logger.With().Str("session_id", report.SessionID).Logger()

	for _, rule := range v.rules {
		err := ctx.Err()
		if err == nil {
			err = rule.Check(ctx, m)
		}

		res := Result{Rule: rule.Name(), Description: rule.Description(), Passed: err == nil, err: err}
		if err != nil {
			res.Message = err.Error()
			report.Failed++
			logger.Debug().Err(err).Str("rule", rule.Name()).Msg("Rule failed")
		} else {
			report.Passed++
			logger.Debug().Str("rule", rule.Name()).Msg("Rule passed")
		}
		report.Results = append(report.Results, res)
	}

	report.Duration = time.Since(report.StartedAt).String()
	logger.Info().
		Str("firmware", m.Path).
		Int("passed", report.Passed).
		Int("failed", report.Failed).
		Msg("Verification finished")

	return report
}

// OK reports whether every rule passed.
func (r *Report) OK() bool {
	return r.Failed == 0
}

// Err aggregates rule failures, nil when every rule passed.
func (r *Report) Err() error {
	var result *multierror.Error
	for _, res := range r.Results {
		if res.Passed {
			continue
		}
		err := res.err
		if err == nil {
			err = fmt.Errorf("%s", res.Message)
		}
		result = multierror.Append(result, fmt.Errorf("%s: %w", res.Rule, err))
	}
	return result.ErrorOrNil()
}

// Failures returns the failed results.
func (r *Report) Failures() []Result {
	return lo.Filter(r.Results, func(res Result, _ int) bool { return !res.Passed })
}

var (
	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10")).
			Bold(true)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// WriteText renders the report for a terminal.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Firmware: %s\n", r.Firmware)
	fmt.Fprintf(&b, "Digest:   %s\n", r.Digest)
	fmt.Fprintf(&b, "Session:  %s\n\n", r.SessionID)

	width := lo.Max(lo.Map(r.Results, func(res Result, _ int) int { return len(res.Rule) }))
	for _, res := range r.Results {
		status := passStyle.Render("PASS")
		if !res.Passed {
			status = failStyle.Render("FAIL")
		}
		fmt.Fprintf(&b, "%s  %-*s  %s\n", status, width, res.Rule, res.Description)
		if !res.Passed {
			fmt.Fprintf(&b, "      %s\n", detailStyle.Render(res.Message))
		}
	}

	fmt.Fprintf(&b, "\n%d passed, %d failed\n", r.Passed, r.Failed)

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteJSON renders the report as indented JSON.
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
