package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	jsoniter "github.com/json-iterator/go"
	"github.com/rileyhilliard/pfdash/internal/config"
	"github.com/rileyhilliard/pfdash/internal/doctor"
	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/internal/ui"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// dialRouter connects for the doctor's router checks. Tests replace it.
var dialRouter = func(cfg *config.Config) (sshutil.Executor, error) {
	c, err := sshutil.Dial(cfg.SSH.Hostname, cfg.SSH.DialConfig())
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DoctorOutput represents the JSON output for doctor command.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

// collectChecks builds the config check and the router checks. The router is
// only dialed once the config check has produced a usable config.
func collectChecks(configPath, host string) ([]doctor.Check, *doctor.Session) {
	cc := &doctor.ConfigCheck{ConfigPath: configPath, Host: host}

	session := &doctor.Session{Host: host}
	session.Dial = func() (sshutil.Executor, error) {
		cfg := cc.Config()
		if cfg == nil {
			return nil, errors.New(errors.ErrConfig,
				"Skipped: no usable config",
				"Fix the CONFIG issues above first")
		}
		session.Host = cfg.SSH.Hostname
		return dialRouter(cfg)
	}

	return append([]doctor.Check{cc}, doctor.NewRouterChecks(session)...), session
}

func doctorCommand(w io.Writer, configPath, host string, asJSON bool) error {
	checks, session := collectChecks(configPath, host)
	defer session.Close()

	results := doctor.RunAll(checks)
	if asJSON {
		return outputDoctorJSON(w, checks, results)
	}
	outputDoctorText(w, checks, results)
	return nil
}

// groupResults returns result indices per category, in report order.
func groupResults(checks []doctor.Check) map[string][]int {
	grouped := make(map[string][]int)
	for i, check := range checks {
		grouped[check.Category()] = append(grouped[check.Category()], i)
	}
	return grouped
}

func outputDoctorJSON(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) error {
	grouped := groupResults(checks)

	output := DoctorOutput{Categories: make([]CategoryOutput, 0, len(doctor.Categories))}
	for _, cat := range doctor.Categories {
		indices, ok := grouped[cat]
		if !ok {
			continue
		}
		out := CategoryOutput{Name: cat, Results: make([]doctor.CheckResult, 0, len(indices))}
		for _, idx := range indices {
			out.Results = append(out.Results, results[idx])
		}
		output.Categories = append(output.Categories, out)
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		AllClear: !doctor.HasIssues(results),
	}

	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputDoctorText(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	successStyle := lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)
	headerStyle := lipgloss.NewStyle().Bold(true)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("pfdash Diagnostic Report"))
	fmt.Fprintln(w)

	grouped := groupResults(checks)
	for _, category := range doctor.Categories {
		indices, ok := grouped[category]
		if !ok {
			continue
		}
		fmt.Fprintln(w, headerStyle.Render(category))
		for _, idx := range indices {
			renderCheckResult(w, results[idx])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	fmt.Fprintln(w)

	if doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render(ui.SymbolFail), doctor.Summary(results))
	} else {
		fmt.Fprintf(w, "%s %s\n", successStyle.Render(ui.SymbolSuccess), doctor.Summary(results))
	}
	fmt.Fprintln(w)
}

func renderCheckResult(w io.Writer, result doctor.CheckResult) {
	var symbol string
	var style lipgloss.Style

	switch result.Status {
	case doctor.StatusPass:
		symbol = ui.SymbolSuccess
		style = lipgloss.NewStyle().Foreground(ui.ColorSuccess)
	case doctor.StatusWarn:
		symbol = ui.SymbolWarning
		style = lipgloss.NewStyle().Foreground(ui.ColorWarning)
	default:
		symbol = ui.SymbolFail
		style = lipgloss.NewStyle().Foreground(ui.ColorError)
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), result.Message)

	if result.Suggestion != "" && result.Status != doctor.StatusPass {
		for _, line := range strings.Split(result.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", ui.Muted(line))
		}
	}
}
