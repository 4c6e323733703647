package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"locaudit/internal/audit"
	"locaudit/internal/ipc"
)

// statusDisplayOrder lists audit statuses in pipeline order for stable output.
var statusDisplayOrder = []audit.Status{
	audit.StatusPending,
	audit.StatusScraping,
	audit.StatusBlocked,
	audit.StatusAnalyzing,
	audit.StatusCompleted,
	audit.StatusFailed,
}

func buildAuditStatusRows(stats map[string]int) [][]string {
	rows := make([][]string, 0, len(stats))
	seen := make(map[string]bool, len(stats))
	for _, status := range statusDisplayOrder {
		if count, ok := stats[string(status)]; ok {
			rows = append(rows, []string{string(status), strconv.Itoa(count)})
			seen[string(status)] = true
		}
	}
	for status, count := range stats {
		if !seen[status] {
			rows = append(rows, []string{status, strconv.Itoa(count)})
		}
	}
	return rows
}

func buildAuditListRows(audits []ipc.AuditView) [][]string {
	rows := make([][]string, 0, len(audits))
	for _, a := range audits {
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10),
			a.Mode,
			auditTargetLabel(a),
			a.Status,
			formatScore(a.OverallScore),
			formatRelativeTime(a.CreatedAt),
		})
	}
	return rows
}

func auditTargetLabel(a ipc.AuditView) string {
	if a.TargetURL != "" {
		return truncateLabel(a.TargetURL, 60)
	}
	return "uploaded images"
}

func truncateLabel(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func formatScore(score *int) string {
	if score == nil {
		return "-"
	}
	return fmt.Sprintf("%d/100", *score)
}

func formatProgress(a ipc.AuditView) string {
	if a.ProgressTotal <= 0 {
		return "-"
	}
	label := fmt.Sprintf("%d/%d", a.ProgressStep, a.ProgressTotal)
	if msg := strings.TrimSpace(a.ProgressMessage); msg != "" {
		label = fmt.Sprintf("%s %s", label, msg)
	}
	return label
}

func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	elapsed := time.Since(t)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed.Minutes()))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed.Hours()))
	default:
		return t.Local().Format("2006-01-02 15:04")
	}
}

func formatUsage(a ipc.AuditView) string {
	if a.Usage.InputTokens == 0 && a.Usage.OutputTokens == 0 {
		return "-"
	}
	return fmt.Sprintf("%d in / %d out tokens ($%.4f)",
		a.Usage.InputTokens, a.Usage.OutputTokens, a.Usage.CostUSD)
}

func statusKindForAudit(status string) statusKind {
	switch audit.Status(status) {
	case audit.StatusCompleted:
		return statusOK
	case audit.StatusBlocked:
		return statusWarn
	case audit.StatusFailed:
		return statusError
	default:
		return statusInfo
	}
}
