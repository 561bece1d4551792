package main

import (
	"github.com/spf13/cobra"

	agentauth "github.com/sage-x-project/sage-agentauth-go"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(cmd, agentauth.GetVersionInfo())
		},
	}
}
