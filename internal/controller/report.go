package controller

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"

	m "gooze.dev/pkg/mutguard/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	faintStyle = lipgloss.NewStyle().Faint(true)

	severityStyles = map[m.Severity]lipgloss.Style{
		m.SeverityBlock: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		m.SeverityWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		m.SeverityInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	}
)

var severityOrder = []m.Severity{m.SeverityBlock, m.SeverityWarn, m.SeverityInfo}

// RenderReport projects a scan result as text: a header, the per-file table,
// the issues grouped by severity and, when showDiffs is set, the diff of
// every surviving mutant.
func RenderReport(result m.ScanResult, showDiffs bool) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Mutation report %s", result.Root)))
	b.WriteString("\n")
	b.WriteString(faintStyle.Render(fmt.Sprintf("run %s, %s mode, %s engine, %s",
		shortID(result.RunID), result.Mode, result.Engine, result.Duration.Round(1e6))))
	b.WriteString("\n\n")

	if len(result.Files) > 0 {
		b.WriteString(renderFilesTable(result))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Score: %.2f (%d/%d killed)\n", result.Score, result.Killed, result.Total))

	for _, severity := range severityOrder {
		issues := issuesOf(result.Issues, severity)
		if len(issues) == 0 {
			continue
		}

		b.WriteString("\n")
		b.WriteString(severityStyles[severity].Render(fmt.Sprintf("%s (%d)", strings.ToUpper(string(severity)), len(issues))))
		b.WriteString("\n")

		for _, issue := range issues {
			b.WriteString("  ")
			b.WriteString(formatIssue(result.Root, issue))
			b.WriteString("\n")
		}
	}

	if showDiffs {
		for _, survivor := range result.Survivors {
			if survivor.Diff == "" {
				continue
			}

			b.WriteString("\n")
			b.WriteString(faintStyle.Render(fmt.Sprintf("%s:%d %s", relTo(result.Root, survivor.File), survivor.Line, survivor.Kind)))
			b.WriteString("\n")
			b.WriteString(survivor.Diff)
		}
	}

	return b.String()
}

func renderFilesTable(result m.ScanResult) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"File", "Mutants", "Killed", "Survived", "Score"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	for _, file := range result.Files {
		name := relTo(result.Root, file.File)
		if file.Stale {
			name += " (stale)"
		}

		table.Append([]string{
			name,
			fmt.Sprintf("%d", file.Total),
			fmt.Sprintf("%d", file.Killed),
			fmt.Sprintf("%d", file.Survived),
			fmt.Sprintf("%.2f", file.Score),
		})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Files %d", len(result.Files)),
		fmt.Sprintf("%d", result.Total),
		fmt.Sprintf("%d", result.Killed),
		fmt.Sprintf("%d", result.Total-result.Killed),
		fmt.Sprintf("%.2f", result.Score),
	})

	table.Render()

	return tableBuffer.String()
}

// RenderEstimation renders per-file, per-operator site counts.
func RenderEstimation(estimates []m.FileEstimate) string {
	var tableBuffer bytes.Buffer

	kinds := m.AllOperators()

	header := []string{"Path"}
	for _, kind := range kinds {
		header = append(header, string(kind))
	}

	header = append(header, "Total")

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)

	totals := make(map[m.OperatorKind]int, len(kinds))
	grand := 0

	for _, estimate := range estimates {
		row := []string{string(estimate.File)}

		for _, kind := range kinds {
			row = append(row, fmt.Sprintf("%d", estimate.Counts[kind]))
			totals[kind] += estimate.Counts[kind]
		}

		row = append(row, fmt.Sprintf("%d", estimate.Total()))
		grand += estimate.Total()

		table.Append(row)
	}

	footer := []string{fmt.Sprintf("Total Files %d", len(estimates))}
	for _, kind := range kinds {
		footer = append(footer, fmt.Sprintf("%d", totals[kind]))
	}

	footer = append(footer, fmt.Sprintf("%d", grand))
	table.SetFooter(footer)

	table.Render()

	return tableBuffer.String()
}

func issuesOf(issues []m.Issue, severity m.Severity) []m.Issue {
	var out []m.Issue

	for _, issue := range issues {
		if issue.Severity == severity {
			out = append(out, issue)
		}
	}

	return out
}

func formatIssue(root m.Path, issue m.Issue) string {
	switch {
	case issue.File == "":
		return issue.Message
	case issue.Line > 0:
		return fmt.Sprintf("%s:%d: %s", relTo(root, issue.File), issue.Line, issue.Message)
	default:
		return fmt.Sprintf("%s: %s", relTo(root, issue.File), issue.Message)
	}
}

// relTo shortens path for display; paths outside root are kept whole.
func relTo(root, path m.Path) string {
	if root == "" {
		return string(path)
	}

	rel, err := filepath.Rel(string(root), string(path))
	if err != nil || strings.HasPrefix(rel, "..") {
		return string(path)
	}

	return rel
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}

	return id
}
