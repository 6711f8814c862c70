package envcheck

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/mlrig/hwmon/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	passStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("3"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func statusLabel(status domain.CheckStatus) string {
	switch status {
	case domain.StatusPass:
		return passStyle.Render("PASS")
	case domain.StatusWarn:
		return warnStyle.Render("WARN")
	default:
		return failStyle.Render("FAIL")
	}
}

// WriteReport prints the check results and a pass/warn/fail summary.
func WriteReport(w io.Writer, results []domain.CheckResult) {
	fmt.Fprintln(w, titleStyle.Render("Environment Setup Check"))
	fmt.Fprintln(w)

	var passed, warned, failed int
	for _, r := range results {
		fmt.Fprintf(w, "%s  %-28s %s\n", statusLabel(r.Status), r.Name, r.Message)
		if r.Recommendation != "" {
			fmt.Fprintf(w, "      %s\n", dimStyle.Render(r.Recommendation))
		}
		switch r.Status {
		case domain.StatusPass:
			passed++
		case domain.StatusWarn:
			warned++
		default:
			failed++
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d failed\n", passed, warned, failed)
}

// Failed reports whether any result is a hard failure. Warnings do not
// count.
func Failed(results []domain.CheckResult) bool {
	for _, r := range results {
		if r.Status == domain.StatusFail {
			return true
		}
	}
	return false
}
