package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Porta048/AutoCad-MCP/internal/tools"
)

func newToolsCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tool table served to clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(root.configPath)
			if err != nil {
				return err
			}
			// Listing never decodes process_command, so no parser is needed.
			manager := tools.NewManager(cfg.DefaultSavePath(), nil)
			return printTools(cmd.OutOrStdout(), manager.GetDefinitions(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full JSON Schemas")
	return cmd
}

func printTools(w io.Writer, defs []tools.Tool, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(defs)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, bold("TOOL")+"\t"+bold("REQUIRED")+"\t"+bold("DESCRIPTION"))
	for _, d := range defs {
		required := strings.Join(d.Function.Parameters.Required, ", ")
		if required == "" {
			required = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", cyan(d.Name()), required, firstSentence(d.Function.Description))
	}
	return tw.Flush()
}

func firstSentence(s string) string {
	if i := strings.Index(s, ". "); i >= 0 {
		return s[:i+1]
	}
	return s
}
