package cli

import (
	"context"

	"github.com/koustreak/dbchat/internal/mcpserver"
	"github.com/koustreak/dbchat/internal/server"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *globalOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and Prometheus metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				sc := server.Config{
					Address:      a.cfg.Server.Address,
					ReadTimeout:  a.cfg.Server.ReadTimeout,
					WriteTimeout: a.cfg.Server.WriteTimeout,
				}
				if addr != "" {
					sc.Address = addr
				}
				return server.New(sc, a.svc, a.log).ListenAndServe(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, \":8080\")")
	return cmd
}

func newMCPCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the MCP tools over stdio",
		Long: `mcp exposes get_sql_data_for_user_prompt, get_database_schema and
get_ai_generated_sql_query to an MCP client over stdin/stdout. Tools use
--connection unless the caller names another one. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				return mcpserver.New(a.svc, opts.connectionName(), Version, a.log).ServeStdio()
			})
		},
	}
}
