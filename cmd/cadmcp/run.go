package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Porta048/AutoCad-MCP/internal/cad"
	"github.com/Porta048/AutoCad-MCP/internal/dispatch"
)

// scriptExtensions are picked up when a directory is given to run.
var scriptExtensions = map[string]bool{".txt": true, ".cad": true}

// instruction is one non-comment line of a drawing script.
type instruction struct {
	File string
	Line int
	Text string
}

type runSummary struct {
	Completed, Rejected, Failed int
}

func (s runSummary) total() int { return s.Completed + s.Rejected + s.Failed }

var errScriptFailed = errors.New("script stopped on a failed instruction")

func newRunCmd(root *rootOptions) *cobra.Command {
	var keepGoing bool
	cmd := &cobra.Command{
		Use:   "run <script|dir>...",
		Short: "Replay drawing scripts against the CAD host",
		Long: `Replay one instruction per line from each script through the same pipeline
as process_command. Blank lines and lines starting with # are skipped.
Directories are walked for .txt and .cad files in lexical order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(root.configPath)
			if err != nil {
				return err
			}
			files, err := collectScripts(args)
			if err != nil {
				return fmt.Errorf("failed to discover scripts: %w", err)
			}
			var all []instruction
			for _, f := range files {
				ins, err := readInstructions(f)
				if err != nil {
					return err
				}
				all = append(all, ins...)
			}
			if len(all) == 0 {
				log.Println("No instructions found, nothing to do.")
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Printf("🚀 Replaying %d instructions from %d scripts...", len(all), len(files))
			summary, err := runScript(ctx, a.dispatcher, cmd.OutOrStdout(), all, keepGoing)
			log.Printf("✅ %d completed, %d rejected, %d failed.", summary.Completed, summary.Rejected, summary.Failed)
			return err
		},
	}
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "continue after a rejected or failed instruction")
	return cmd
}

// collectScripts expands directories into their script files. Explicit file
// arguments are kept whatever their extension.
func collectScripts(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		var found []string
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && scriptExtensions[strings.ToLower(filepath.Ext(path))] {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	return files, nil
}

func readInstructions(path string) ([]instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scanInstructions(path, f)
}

func scanInstructions(name string, r io.Reader) ([]instruction, error) {
	var out []instruction
	sc := bufio.NewScanner(r)
	for n := 1; sc.Scan(); n++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		out = append(out, instruction{File: name, Line: n, Text: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return out, nil
}

// runScript dispatches the instructions in order. Unless keepGoing is set it
// stops at the first instruction that does not complete.
func runScript(ctx context.Context, h RequestHandler, w io.Writer, script []instruction, keepGoing bool) (runSummary, error) {
	var summary runSummary
	for _, in := range script {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		resp := h.Handle(ctx, dispatch.RawText(in.Text))
		where := fmt.Sprintf("%s:%d", in.File, in.Line)
		switch resp.Status {
		case dispatch.StatusCompleted:
			summary.Completed++
			fmt.Fprintf(w, "%s %s %s\n", green("✓"), where, describeResult(resp.Result))
			continue
		case dispatch.StatusRejected:
			summary.Rejected++
		default:
			summary.Failed++
		}
		if resp.Error != nil {
			fmt.Fprintf(w, "%s %s %s: %s\n", red("✗"), where, resp.Error.Kind, resp.Error.Message)
		}
		if !keepGoing {
			return summary, fmt.Errorf("%w at %s", errScriptFailed, where)
		}
	}
	if summary.Completed != summary.total() {
		return summary, errScriptFailed
	}
	return summary, nil
}

func describeResult(r *cad.Result) string {
	switch {
	case r == nil:
		return ""
	case r.Path != "":
		return fmt.Sprintf("%s -> %s", r.Operation, r.Path)
	case r.EntityID != "":
		return fmt.Sprintf("%s #%s", r.Operation, r.EntityID)
	default:
		return r.Operation
	}
}
