package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"locaudit/internal/api"
	"locaudit/internal/config"
	"locaudit/internal/ipc"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var req api.CreateAuditRequest
	var glossaryID int64
	var imageArgs []string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a localization audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if glossaryID > 0 {
				req.GlossaryID = &glossaryID
			}
			images, err := loadImageUploads(imageArgs)
			if err != nil {
				return err
			}
			req.Images = images

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Submit(req)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Audit)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Audit #%d submitted (%s)\n", resp.Audit.ID, resp.Audit.Mode)
				fmt.Fprintf(cmd.OutOrStdout(), "Track progress with `locaudit show %d`\n", resp.Audit.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Mode, "mode", "comparison", "Audit mode: comparison, standalone, or proficiency")
	cmd.Flags().StringVar(&req.SourceURL, "source-url", "", "Source page URL (comparison mode)")
	cmd.Flags().StringVar(&req.TargetURL, "target-url", "", "Target page URL")
	cmd.Flags().StringVar(&req.SourceLanguage, "source-lang", "", "Source language tag, e.g. en")
	cmd.Flags().StringVar(&req.TargetLanguage, "target-lang", "", "Target language tag, e.g. ko")
	cmd.Flags().StringVar(&req.Industry, "industry", "", "Industry hint for terminology, e.g. ecommerce")
	cmd.Flags().StringVar(&req.Acquisition, "acquisition", "", "Acquisition method: auto, scrape, snapshot, or image_upload")
	cmd.Flags().StringVar(&req.Owner, "owner", "", "Owner identifier for the audit")
	cmd.Flags().Int64Var(&glossaryID, "glossary", 0, "Glossary ID to enforce terminology against")
	cmd.Flags().StringArrayVar(&imageArgs, "image", nil, "Labeled page capture as label=path (repeatable, labels: source, target)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the created audit as JSON")

	return cmd
}

// loadImageUploads parses label=path arguments and inlines file contents as
// base64 payloads.
func loadImageUploads(args []string) ([]api.ImageUpload, error) {
	if len(args) == 0 {
		return nil, nil
	}
	uploads := make([]api.ImageUpload, 0, len(args))
	for _, arg := range args {
		label, path, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --image value %q: expected label=path", arg)
		}
		label = strings.TrimSpace(label)
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return nil, fmt.Errorf("resolve image path %q: %w", path, err)
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return nil, fmt.Errorf("read image %q: %w", expanded, err)
		}
		uploads = append(uploads, api.ImageUpload{
			Label:     label,
			Name:      filepath.Base(expanded),
			MediaType: mediaTypeForImage(expanded),
			Data:      base64.StdEncoding.EncodeToString(data),
		})
	}
	return uploads, nil
}

func mediaTypeForImage(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

func newListCommand(ctx *commandContext) *cobra.Command {
	var owner string
	var offset, limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List audits, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AuditList(owner, offset, limit)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Page)
				}
				if len(resp.Page.Audits) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No audits found")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Mode", "Target", "Status", "Score", "Created"},
					buildAuditListRows(resp.Page.Audits),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				if resp.Page.Total > len(resp.Page.Audits) {
					fmt.Fprintf(cmd.OutOrStdout(), "Showing %d of %d audits\n", len(resp.Page.Audits), resp.Page.Total)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Filter audits by owner")
	cmd.Flags().IntVar(&offset, "offset", 0, "Listing offset")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum audits to return")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the listing as JSON")
	return cmd
}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <audit-id>",
		Short: "Display one audit with its dimension results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAuditID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AuditShow(id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Audit)
				}
				renderAuditDetail(cmd, resp.Audit)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the audit as JSON")
	return cmd
}

func renderAuditDetail(cmd *cobra.Command, a ipc.AuditView) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader(fmt.Sprintf("Audit #%d", a.ID), colorize) {
		fmt.Fprintln(stdout, line)
	}
	fmt.Fprintln(stdout, renderStatusLine("Status", statusKindForAudit(a.Status), a.Status, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Mode", statusInfo, a.Mode, colorize))
	if a.SourceURL != "" {
		fmt.Fprintln(stdout, renderStatusLine("Source", statusInfo, a.SourceURL, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Target", statusInfo, auditTargetLabel(a), colorize))
	languages := strings.TrimSpace(a.SourceLanguage + " -> " + a.TargetLanguage)
	fmt.Fprintln(stdout, renderStatusLine("Languages", statusInfo, languages, colorize))
	if a.ActualMethod != "" {
		fmt.Fprintln(stdout, renderStatusLine("Acquisition", statusInfo, a.ActualMethod, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Progress", statusInfo, formatProgress(a), colorize))
	if a.Degraded {
		fmt.Fprintln(stdout, renderStatusLine("Evidence", statusWarn, "partial (judged on degraded evidence)", colorize))
	}
	if a.BlockedReason != "" {
		fmt.Fprintln(stdout, renderStatusLine("Blocked", statusWarn, a.BlockedReason, colorize))
	}
	if a.ErrorMessage != "" {
		fmt.Fprintln(stdout, renderStatusLine("Error", statusError, a.ErrorMessage, colorize))
	}
	fmt.Fprintln(stdout, renderStatusLine("Score", statusInfo, formatScore(a.OverallScore), colorize))
	fmt.Fprintln(stdout, renderStatusLine("Usage", statusInfo, formatUsage(a), colorize))

	if len(a.Results) == 0 {
		return
	}

	fmt.Fprintln(stdout)
	for _, line := range renderSectionHeader("Dimension Results", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := make([][]string, 0, len(a.Results))
	for _, result := range a.Results {
		topRecommendation := ""
		if len(result.Recommendations) > 0 {
			topRecommendation = truncateLabel(result.Recommendations[0], 70)
		}
		rows = append(rows, []string{
			result.Dimension,
			fmt.Sprintf("%d/100", result.Score),
			strconv.Itoa(len(result.Findings)),
			topRecommendation,
		})
	}
	table := renderTable(
		[]string{"Dimension", "Score", "Findings", "Top Recommendation"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignLeft},
	)
	fmt.Fprintln(stdout, table)

	for _, result := range a.Results {
		if len(result.Findings) == 0 {
			continue
		}
		fmt.Fprintln(stdout)
		for _, line := range renderSectionHeader(result.Dimension, colorize) {
			fmt.Fprintln(stdout, line)
		}
		for _, finding := range result.Findings {
			kind := statusWarn
			if finding.Severity == "critical" || finding.Severity == "high" {
				kind = statusError
			}
			fmt.Fprintln(stdout, renderStatusLine(finding.Severity, kind, finding.Issue, colorize))
			if finding.Suggestion != "" {
				fmt.Fprintf(stdout, "%s%-*s %s\n", statusIndent, statusLabelWidth, "", "suggestion: "+finding.Suggestion)
			}
		}
	}
}

func newRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <audit-id>",
		Short: "Return a blocked audit to the queue for a fresh acquisition attempt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAuditID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AuditRetry(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Audit #%d returned to queue (%s)\n", resp.Audit.ID, resp.Audit.Status)
				return nil
			})
		},
	}
}

func newProceedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "proceed <audit-id>",
		Short: "Release a blocked audit into analysis on its partial evidence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAuditID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.AuditProceed(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Audit #%d proceeding with partial evidence (%s)\n", resp.Audit.ID, resp.Audit.Status)
				return nil
			})
		},
	}
}

func newDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <audit-id>",
		Short: "Delete an audit and its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAuditID(args[0])
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.AuditDelete(id); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Audit #%d deleted\n", id)
				return nil
			})
		},
	}
}

func parseAuditID(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid audit id %q", arg)
	}
	return id, nil
}
