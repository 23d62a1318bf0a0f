package domain

import (
	"fmt"
	"sort"

	m "gooze.dev/pkg/mutguard/internal/model"
)

// Thresholds grade mutation scores into issues.
type Thresholds struct {
	Block float64
	Warn  float64
}

// Severity returns the severity score deserves, or "" when none.
func (t Thresholds) Severity(score float64) m.Severity {
	switch {
	case score < t.Block:
		return m.SeverityBlock
	case score < t.Warn:
		return m.SeverityWarn
	default:
		return ""
	}
}

// Aggregate is the outcome of scoring one scan.
type Aggregate struct {
	Issues []m.Issue
	Total  int
	Killed int
	Score  float64
}

// Score is killed/total, 1.0 when nothing was executed.
func Score(killed, total int) float64 {
	if total <= 0 {
		return 1.0
	}

	return float64(killed) / float64(total)
}

// BuildFileReport tallies the verdicts of one file.
func BuildFileReport(file m.Path, verdicts []m.Verdict) m.FileReport {
	report := m.FileReport{File: file, Total: len(verdicts)}

	for _, v := range verdicts {
		if v.Killed {
			report.Killed++
		} else {
			report.Survived++
		}

		if v.Status == m.Errored {
			report.Errored++
		}
	}

	report.Score = Score(report.Killed, report.Total)

	return report
}

// AggregateReports turns file reports and surviving verdicts into issues.
// The project issue, when there is one, comes first.
func AggregateReports(reports []m.FileReport, survivors []m.Verdict, thresholds Thresholds) Aggregate {
	var (
		agg    Aggregate
		issues []m.Issue
	)

	sorted := append([]m.Verdict(nil), survivors...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}

		return sorted[i].Line < sorted[j].Line
	})

	byFile := make(map[m.Path][]m.Verdict)
	for _, v := range sorted {
		byFile[v.File] = append(byFile[v.File], v)
	}

	for _, report := range reports {
		if report.Total == 0 {
			continue
		}

		agg.Total += report.Total
		agg.Killed += report.Killed

		if report.Errored == report.Total {
			issues = append(issues, m.Issue{
				Guard:    m.GuardID,
				Severity: m.SeverityWarn,
				Message:  fmt.Sprintf("test runner could not be invoked for %d mutant(s); score is not meaningful", report.Total),
				File:     report.File,
			})
		}

		if severity := thresholds.Severity(report.Score); severity != "" {
			issues = append(issues, m.Issue{
				Guard:    m.GuardID,
				Severity: severity,
				Message: fmt.Sprintf("mutation score %.2f (%d/%d killed) is below the %s threshold %.2f",
					report.Score, report.Killed, report.Total, severity, thresholdFor(thresholds, severity)),
				File: report.File,
			})
		}

		for _, v := range byFile[report.File] {
			issues = append(issues, survivorIssue(v))
		}
	}

	agg.Score = Score(agg.Killed, agg.Total)

	if agg.Total > 0 {
		if severity := thresholds.Severity(agg.Score); severity != "" {
			project := m.Issue{
				Guard:    m.GuardID,
				Severity: severity,
				Message: fmt.Sprintf("project mutation score %.2f (%d/%d killed) is below the %s threshold %.2f",
					agg.Score, agg.Killed, agg.Total, severity, thresholdFor(thresholds, severity)),
			}
			issues = append([]m.Issue{project}, issues...)
		}
	}

	agg.Issues = issues

	return agg
}

func survivorIssue(v m.Verdict) m.Issue {
	message := fmt.Sprintf("%s mutant survived", v.Kind)
	if v.Function != "" {
		message = fmt.Sprintf("%s mutant survived in %s", v.Kind, v.Function)
	}

	return m.Issue{
		Guard:    m.GuardID,
		Severity: m.SeverityInfo,
		Message:  message,
		File:     v.File,
		Line:     v.Line,
	}
}

func thresholdFor(t Thresholds, severity m.Severity) float64 {
	if severity == m.SeverityBlock {
		return t.Block
	}

	return t.Warn
}
