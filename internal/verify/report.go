package verify

import (
	"fmt"
	"strings"
	"time"
)

// StepResult is the outcome of one step.
type StepResult struct {
	Name     string
	Pass     bool
	Skipped  bool
	Detail   string
	Duration time.Duration
}

// Report describes one run. It is complete even when the run fails.
type Report struct {
	RunID         string
	URL           string
	Driver        string
	LoggedIn      bool
	Steps         []StepResult
	Screenshots   []string
	ConsoleErrors []string
	Started       time.Time
	Finished      time.Time
}

// Passed reports whether every executed step passed.
func (r *Report) Passed() bool {
	for _, s := range r.Steps {
		if !s.Pass && !s.Skipped {
			return false
		}
	}
	return len(r.Steps) > 0
}

func (r *Report) add(s StepResult) {
	r.Steps = append(r.Steps, s)
}

// tally counts steps by outcome. Skipped steps are neither passed nor failed.
func (r *Report) tally() (passed, skipped, failed int) {
	for _, s := range r.Steps {
		switch {
		case s.Skipped:
			skipped++
		case s.Pass:
			passed++
		default:
			failed++
		}
	}
	return passed, skipped, failed
}

// Text renders the report in the check-list format printed by the CLI.
func (r *Report) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  run %s  %s  (%s)\n\n", r.RunID, r.URL, r.Driver)
	for _, s := range r.Steps {
		icon := "✓"
		switch {
		case s.Skipped:
			icon = "-"
		case !s.Pass:
			icon = "✗"
		}
		fmt.Fprintf(&b, "  %s %-20s %s (%s)\n", icon, s.Name, s.Detail, s.Duration.Round(time.Millisecond))
	}
	for _, path := range r.Screenshots {
		fmt.Fprintf(&b, "  screenshot: %s\n", path)
	}
	for _, msg := range r.ConsoleErrors {
		fmt.Fprintf(&b, "  js: %s\n", msg)
	}
	passed, skipped, failed := r.tally()
	fmt.Fprintf(&b, "\n  %d passed, %d skipped, %d failed\n", passed, skipped, failed)
	return b.String()
}

// Markdown renders the report for MCP clients.
func (r *Report) Markdown() string {
	var b strings.Builder
	status := "PASS"
	if !r.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(&b, "# WordSpark verification: %s\n\n", status)
	fmt.Fprintf(&b, "- Run: `%s`\n- URL: %s\n- Driver: %s\n- Logged in: %v\n- Duration: %s\n",
		r.RunID, r.URL, r.Driver, r.LoggedIn, r.Finished.Sub(r.Started).Round(time.Millisecond))
	passed, skipped, failed := r.tally()
	fmt.Fprintf(&b, "- Steps: %d passed, %d skipped, %d failed\n\n", passed, skipped, failed)
	b.WriteString("| Step | Result | Detail |\n|------|--------|--------|\n")
	for _, s := range r.Steps {
		result := "pass"
		switch {
		case s.Skipped:
			result = "skipped"
		case !s.Pass:
			result = "FAIL"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", s.Name, result, strings.ReplaceAll(s.Detail, "|", `\|`))
	}
	if len(r.Screenshots) > 0 {
		b.WriteString("\n## Screenshots\n\n")
		for _, path := range r.Screenshots {
			fmt.Fprintf(&b, "- %s\n", path)
		}
	}
	return b.String()
}
