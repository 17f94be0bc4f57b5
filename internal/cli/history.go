package cli

import (
	"context"
	"strings"
	"time"

	"github.com/koustreak/dbchat/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse and save queries",
	}
	cmd.AddCommand(newHistoryListCmd(opts), newHistorySaveCmd(opts), newHistoryRemoveCmd(opts))
	return cmd
}

func newHistoryListCmd(opts *globalOptions) *cobra.Command {
	var (
		kind string
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded queries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := history.ParseType(kind)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				connName := opts.connection
				if all {
					connName = ""
				}
				items, err := a.svc.History().List(ctx, connName, t)
				if err != nil {
					return err
				}
				if out.json {
					if items == nil {
						items = []history.Item{}
					}
					return out.printJSON(items)
				}
				if len(items) == 0 {
					out.info("No %s entries.", t)
					return nil
				}
				data := [][]string{{"ID", "When", "Connection", "Name", "Query"}}
				for _, it := range items {
					data = append(data, []string{
						it.ID,
						it.CreatedAt.Local().Format(time.DateTime),
						it.ConnectionName,
						it.Name,
						it.Query,
					})
				}
				return out.table(data)
			})
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", string(history.TypeHistory), "history or favorite")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include every connection, ignoring --connection")
	return cmd
}

func newHistorySaveCmd(opts *globalOptions) *cobra.Command {
	var (
		name string
		tags []string
		kind string
	)
	cmd := &cobra.Command{
		Use:   "save <sql>",
		Short: "Save a query, as a favorite by default",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := history.ParseType(kind)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				item, err := a.svc.History().Save(ctx, history.Item{
					Query:          strings.Join(args, " "),
					Name:           name,
					ConnectionName: opts.connectionName(),
					Type:           t,
					Tags:           strings.Join(tags, ","),
				})
				if err != nil {
					return err
				}
				if out.json {
					return out.printJSON(item)
				}
				out.success("Saved %s %q", item.Type, item.Name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: the query)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag to attach; repeatable")
	cmd.Flags().StringVarP(&kind, "type", "t", string(history.TypeFavorite), "history or favorite")
	return cmd
}

func newHistoryRemoveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Remove a history entry or favorite",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				if err := a.svc.History().Delete(ctx, args[0]); err != nil {
					return err
				}
				if !out.json {
					out.success("Removed %s", args[0])
				}
				return nil
			})
		},
	}
}
