package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"locaudit/internal/ipc"
)

func newGlossaryCommand(ctx *commandContext) *cobra.Command {
	glossaryCmd := &cobra.Command{
		Use:   "glossary",
		Short: "Browse terminology glossaries",
	}

	glossaryCmd.AddCommand(newGlossaryListCommand(ctx))
	glossaryCmd.AddCommand(newGlossaryShowCommand(ctx))

	return glossaryCmd
}

func newGlossaryListCommand(ctx *commandContext) *cobra.Command {
	var owner string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available glossaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GlossaryList(owner)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Glossaries)
				}
				if len(resp.Glossaries) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No glossaries found")
					return nil
				}
				rows := make([][]string, 0, len(resp.Glossaries))
				for _, g := range resp.Glossaries {
					system := "no"
					if g.IsSystem {
						system = "yes"
					}
					rows = append(rows, []string{
						strconv.FormatInt(g.ID, 10),
						g.Name,
						g.Industry,
						g.SourceLanguage + " -> " + g.TargetLanguage,
						strconv.Itoa(g.TermCount),
						system,
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Industry", "Languages", "Terms", "System"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Include glossaries owned by this identifier")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the listing as JSON")
	return cmd
}

func newGlossaryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <glossary-id>",
		Short: "Display a glossary and its terms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseAuditID(args[0])
			if err != nil {
				return fmt.Errorf("invalid glossary id %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.GlossaryShow(id)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Glossary)
				}
				g := resp.Glossary

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader(g.Name, colorize) {
					fmt.Fprintln(stdout, line)
				}
				if g.Description != "" {
					fmt.Fprintln(stdout, renderStatusLine("Description", statusInfo, g.Description, colorize))
				}
				fmt.Fprintln(stdout, renderStatusLine("Industry", statusInfo, g.Industry, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Languages", statusInfo, g.SourceLanguage+" -> "+g.TargetLanguage, colorize))

				if len(g.Terms) == 0 {
					fmt.Fprintln(stdout, "Glossary has no terms")
					return nil
				}
				rows := make([][]string, 0, len(g.Terms))
				for _, term := range g.Terms {
					rows = append(rows, []string{term.SourceTerm, term.TargetTerm, term.Context})
				}
				table := renderTable(
					[]string{"Source", "Target", "Context"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the glossary as JSON")
	return cmd
}
