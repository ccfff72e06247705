package main

import (
	"github.com/spf13/cobra"

	orgmcp "orgmap/pkg/mcp"
	"orgmap/pkg/suggest"
)

func newMCPCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the orgmap tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := suggest.New(cmd.Context(), c.cfg.Suggest)
			if err != nil {
				return withCode(exitConfig, err)
			}
			srv := orgmcp.New(orgmcp.Options{
				Suggester: s,
				Required:  c.cfg.RequiredFields(),
				Version:   version,
				Logger:    c.logger,
			})
			return srv.ServeStdio()
		},
	}
}
