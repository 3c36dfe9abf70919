package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "cadmcp",
		Short:         "CAD command gateway for AutoCAD, GstarCAD and ZWCAD",
		Long:          `cadmcp turns structured tool calls and short natural-language instructions into drawing operations on a running CAD host.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "config.yaml", "path to the YAML config file")

	root.AddCommand(
		newServeCmd(opts),
		newRunCmd(opts),
		newParseCmd(opts),
		newToolsCmd(opts),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), GetBuildInfo())
		},
	}
}
