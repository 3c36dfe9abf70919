package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Porta048/AutoCad-MCP/internal/intent"
	"github.com/Porta048/AutoCad-MCP/internal/nlp"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// errRejected is returned when an instruction does not produce a valid intent.
var errRejected = errors.New("instruction rejected")

func newParseCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "parse <instruction>",
		Short: "Parse and validate an instruction without touching the CAD host",
		Example: `  cadmcp parse "Draw a red circle at (100, 100) with radius 50"
  cadmcp parse --json "line from 0,0 to 100,50"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(root.configPath)
			if err != nil {
				return err
			}
			parser, err := nlp.New(nlp.Options{DefaultSavePath: cfg.DefaultSavePath()})
			if err != nil {
				return err
			}
			return runParse(cmd.OutOrStdout(), parser, strings.Join(args, " "), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the validated intent as JSON")
	return cmd
}

func runParse(w io.Writer, parser *nlp.Parser, text string, asJSON bool) error {
	in, err := parser.Parse(text)
	if err != nil {
		var perr *nlp.ParseError
		if errors.As(err, &perr) {
			fmt.Fprintf(w, "%s %s\n", red("✗ parse_error"), yellow(string(perr.Reason)))
			if perr.Slot != "" {
				fmt.Fprintf(w, "  slot:   %s\n", perr.Slot)
			}
			fmt.Fprintf(w, "  detail: %s\n", perr.Detail)
		} else {
			fmt.Fprintf(w, "%s %v\n", red("✗ parse_error"), err)
		}
		return errRejected
	}

	valid, err := intent.Validate(in)
	if err != nil {
		fmt.Fprintf(w, "%s %v\n", red("✗ validation_error"), err)
		fmt.Fprintf(w, "  parsed: %s\n", intent.Summary(in))
		return errRejected
	}

	fmt.Fprintf(w, "%s %s\n", green("✓"), bold(intent.Summary(valid)))
	if asJSON {
		data, err := json.MarshalIndent(valid, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode intent: %w", err)
		}
		fmt.Fprintln(w, cyan(string(data)))
	}
	return nil
}
