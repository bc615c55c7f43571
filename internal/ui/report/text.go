package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"archcheck/internal/core/app"
	"archcheck/internal/engine/architecture"
	"archcheck/internal/engine/graph"
	"archcheck/internal/ui/report/formats"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	detailStyle = lipgloss.NewStyle().PaddingLeft(4)
)

// TextOptions tunes RenderText. Passing rules are listed only when Verbose
// is set.
type TextOptions struct {
	Verbose bool
}

// RenderText writes a human readable summary of run.
func RenderText(w io.Writer, run app.Run, opts TextOptions) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("archcheck") + " " + statusStyle.Render(run.Root) + "\n")

	for _, o := range run.Outcomes {
		switch {
		case o.Err != nil:
			b.WriteString(warningStyle.Render("ERROR") + " " + o.Rule.Description() + "\n")
			b.WriteString(detailStyle.Render(o.Err.Error()) + "\n")
		case !o.Result.Passed:
			b.WriteString(failureStyle.Render("FAIL") + "  " + o.Rule.Description() + "\n")
			for _, v := range o.Result.Violations {
				b.WriteString(detailStyle.Render(violationLine(run.Root, v)) + "\n")
			}
		case opts.Verbose:
			b.WriteString(successStyle.Render("PASS") + "  " + o.Rule.Description() + "\n")
		}
	}

	for _, d := range run.Deltas {
		switch {
		case d.Regressed():
			b.WriteString(failureStyle.Render("regressed") + " " + d.Key + "\n")
		case d.Fixed():
			b.WriteString(successStyle.Render("fixed") + " " + d.Key + "\n")
		case d.Delta != 0 && opts.Verbose:
			b.WriteString(statusStyle.Render(fmt.Sprintf("%+d violations", d.Delta)) + " " + d.Key + "\n")
		}
	}

	b.WriteString(summaryLine(run) + "\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func summaryLine(run app.Run) string {
	total := len(run.Outcomes)
	failed := run.FailedCount()
	status := statusStyle.Render(fmt.Sprintf("(%s)", run.Duration.Round(time.Millisecond)))
	if failed == 0 {
		return successStyle.Render(fmt.Sprintf("%d of %d rules passed", total, total)) + " " + status
	}
	return failureStyle.Render(fmt.Sprintf("%d of %d rules failed", failed, total)) + " " + status
}

func violationLine(root string, v architecture.Violation) string {
	rel := architecture.Violation{Path: formats.RelativePath(root, v.Path), Detail: v.Detail}
	return rel.String()
}

// RenderChain writes an import chain one file per line.
func RenderChain(w io.Writer, root string, chain []string) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("import chain") + "\n")
	for i, p := range chain {
		prefix := "  "
		if i > 0 {
			prefix = "→ "
		}
		b.WriteString(prefix + formats.RelativePath(root, p) + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderImpact writes the direct and transitive importers of a file.
func RenderImpact(w io.Writer, root string, report graph.ImpactReport) error {
	var b strings.Builder
	b.WriteString(titleStyle.Render("impact of "+formats.RelativePath(root, report.Target)) + "\n")
	writeSection(&b, root, "direct importers", report.DirectImporters)
	writeSection(&b, root, "transitive importers", report.TransitiveImporters)
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSection(b *strings.Builder, root, title string, paths []string) {
	b.WriteString(statusStyle.Render(fmt.Sprintf("%s (%d)", title, len(paths))) + "\n")
	for _, p := range paths {
		b.WriteString("  " + formats.RelativePath(root, p) + "\n")
	}
}
