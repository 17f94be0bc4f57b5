package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSchemaCmd(opts *globalOptions) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the tables and columns of a connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				conn, err := a.svc.Connection(ctx, opts.connectionName())
				if err != nil {
					return err
				}
				stop := out.spin("Reading schema of " + conn.Name)
				sch, err := a.svc.GenerateSchema(ctx, conn)
				stop()
				if err != nil {
					return err
				}

				if out.json {
					return out.printJSON(sch)
				}
				if raw {
					for _, line := range sch.Raw {
						fmt.Fprintln(out.w, line)
					}
					return nil
				}
				if sch.Len() == 0 {
					out.info("No tables found.")
					return nil
				}
				data := [][]string{{"Table", "Columns"}}
				for _, t := range sch.Structured {
					data = append(data, []string{t.TableName, strings.Join(t.ColumnNames(), ", ")})
				}
				return out.table(data)
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the schema exactly as the model sees it")
	return cmd
}

func newQueryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SQL statement and print the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				conn, err := a.svc.Connection(ctx, opts.connectionName())
				if err != nil {
					return err
				}
				stop := out.spin("Running query")
				grid, err := a.svc.GetDataTable(ctx, conn, strings.Join(args, " "))
				stop()
				if err != nil {
					return err
				}
				return out.grid(grid)
			})
		},
	}
}

func newPreviewCmd(opts *globalOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "preview <table>",
		Short: "Show the first rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				conn, err := a.svc.Connection(ctx, opts.connectionName())
				if err != nil {
					return err
				}
				grid, err := a.svc.PreviewTable(ctx, conn, args[0], limit)
				if err != nil {
					return err
				}
				return out.grid(grid)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of rows to show (capped at max_rows)")
	return cmd
}
