package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/jmaddaus/cairn/internal/graph"
	"github.com/jmaddaus/cairn/internal/model"
	"github.com/jmaddaus/cairn/internal/run"
)

var (
	colorPass = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#c2d94c"}
	colorWarn = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorFail = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorMute = lipgloss.AdaptiveColor{Light: "#828c99", Dark: "#6c7680"}

	passStyle  = lipgloss.NewStyle().Foreground(colorPass)
	warnStyle  = lipgloss.NewStyle().Foreground(colorWarn)
	failStyle  = lipgloss.NewStyle().Foreground(colorFail)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMute)
	titleStyle = lipgloss.NewStyle().Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMute).
			Padding(0, 2)
)

// printSummary renders the final account of a run: counts, then the explicit
// failure lists a human needs in order to remediate.
func printSummary(s *run.Summary) {
	header := "Run " + s.RunID
	if s.DryRun {
		header += " (dry run)"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header) + "\n")
	b.WriteString(mutedStyle.Render(s.Repository) + "\n\n")

	fmt.Fprintf(&b, "%s  created   %d\n", passStyle.Render("✓"), s.Created)
	fmt.Fprintf(&b, "%s  linked    %d\n", passStyle.Render("✓"), s.Linked)
	fmt.Fprintf(&b, "%s  skipped   %d\n", mutedStyle.Render("-"), s.Skipped)
	fmt.Fprintf(&b, "%s  failed    %d\n", failStyle.Render("✗"), s.Failed())
	fmt.Fprintf(&b, "\n%s in %s", statusBadge(s.Status), run.FormatDuration(s.Duration))

	fmt.Println(panelStyle.Render(b.String()))

	printFailureList("Creation failed", s.CreationFailed)
	printFailureList("Created but not linked (manual review)", s.LinkFailed)

	if len(s.FailedByAncestor) > 0 {
		fmt.Println(failStyle.Render("Not attempted (ancestor failed):"))
		for _, id := range s.FailedByAncestor {
			fmt.Printf("  %s\n", id)
		}
	}
	if len(s.VerifyFindings) > 0 {
		fmt.Println(warnStyle.Render("Verification findings:"))
		for _, f := range s.VerifyFindings {
			fmt.Printf("  %s\n", f)
		}
	}
}

func printFailureList(heading string, items []run.ItemFailure) {
	if len(items) == 0 {
		return
	}
	fmt.Println(failStyle.Render(heading + ":"))
	for _, it := range items {
		fmt.Printf("  %s  %s\n", it.LocalID, mutedStyle.Render(it.Reason))
	}
}

func statusBadge(status model.RunStatus) string {
	switch status {
	case model.RunCompleted:
		return passStyle.Render("completed")
	case model.RunFailed:
		return failStyle.Render("failed")
	default:
		return warnStyle.Render(string(status))
	}
}

// printTree renders the hierarchy the way it will be created, indented by
// depth in creation order.
func printTree(g *graph.Graph) {
	for _, id := range g.Order() {
		spec := g.Spec(id)
		indent := strings.Repeat("  ", g.Depth(id))
		line := fmt.Sprintf("%s%s  %s", indent, titleStyle.Render(spec.Title), mutedStyle.Render("("+id+")"))
		fmt.Println(line)
	}
}

// printRuns outputs runs as a tabwriter-formatted table, newest first.
func printRuns(runs []*model.Run) {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tREPOSITORY\tSTATUS\tSTARTED\tINPUT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.RunID,
			r.Repository,
			r.Status,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.InputFile,
		)
	}
	w.Flush()
}

// printRunDetail outputs one run with its per-item records.
func printRunDetail(r *model.Run, stats model.RunStats, items []*model.CreatedIssue) {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Run "+r.RunID) + "\n")
	b.WriteString(mutedStyle.Render(r.Repository) + "\n\n")
	fmt.Fprintf(&b, "status    %s\n", statusBadge(r.Status))
	fmt.Fprintf(&b, "started   %s\n", r.StartedAt.Format("2006-01-02 15:04:05"))
	if r.CompletedAt != nil {
		fmt.Fprintf(&b, "finished  %s\n", r.CompletedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(&b, "input     %s\n", r.InputFile)
	fmt.Fprintf(&b, "items     %d created, %d linked, %d unlinked", stats.Total, stats.Linked, stats.Unlinked)
	fmt.Println(panelStyle.Render(b.String()))

	if len(items) == 0 {
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LOCAL ID\tISSUE\tLINKED\tTITLE")
	for _, it := range items {
		linked := "-"
		if it.Linked() {
			linked = fmt.Sprintf("under #%d", *it.ParentNumber)
		} else if it.ParentID != "" {
			linked = "pending"
		}
		fmt.Fprintf(w, "%s\t#%d\t%s\t%s\n", it.LocalID, it.Number, linked, it.Title)
	}
	w.Flush()
}
