package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type askResult struct {
	Summary string        `json:"summary"`
	Query   string        `json:"query"`
	Rows    database.Grid `json:"rows,omitempty"`
}

func newAskCmd(opts *globalOptions) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Turn a question into SQL, run it and print the answer",
		Long: `ask reads the connection's schema, asks the AI model for a query that
answers the question, runs the query and prints the rows. With --dry-run the
query is printed but not run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				conn, err := a.svc.Connection(ctx, opts.connectionName())
				if err != nil {
					return err
				}

				if dryRun {
					stop := out.spin("Generating SQL")
					sch, err := a.svc.GenerateSchema(ctx, conn)
					if err != nil {
						stop()
						return err
					}
					q, err := a.svc.GetAISQLQuery(ctx, opts.model, opts.provider, prompt, sch, a.svc.Dialect(conn.Engine))
					stop()
					if err != nil {
						return err
					}
					if out.json {
						return out.printJSON(askResult{Summary: q.Summary, Query: q.Query})
					}
					out.query(q.Summary, q.Query)
					return nil
				}

				stop := out.spin("Generating and running SQL")
				res, err := a.svc.Run(ctx, conn, opts.model, opts.provider, prompt)
				stop()
				if err != nil {
					if res != nil && !out.json {
						out.query(res.Summary, res.Query)
					}
					return err
				}
				if out.json {
					return out.printJSON(askResult{Summary: res.Summary, Query: res.Query, Rows: res.Grid})
				}
				out.query(res.Summary, res.Query)
				return out.grid(res.Grid)
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the generated SQL without running it")
	return cmd
}

func newChatCmd(opts *globalOptions) *cobra.Command {
	var system string
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the AI model",
		Long: `With a message argument chat sends one message and prints the reply.
Without one it reads messages from stdin, one per line, keeping the
conversation until EOF or "exit".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, a *app, out *output) error {
				var msgs []chat.Message
				if system != "" {
					msgs = append(msgs, chat.System(system))
				}

				send := func(text string) error {
					msgs = append(msgs, chat.User(text))
					stop := out.spin("Thinking")
					reply, err := a.svc.ChatPrompt(ctx, msgs, opts.model, opts.provider)
					stop()
					if err != nil {
						msgs = msgs[:len(msgs)-1]
						return err
					}
					msgs = append(msgs, reply)
					if out.json {
						return out.printJSON(reply)
					}
					fmt.Fprintln(out.w, reply.Content)
					return nil
				}

				if len(args) > 0 {
					return send(strings.Join(args, " "))
				}

				in := bufio.NewScanner(cmd.InOrStdin())
				for {
					if out.interactive {
						fmt.Fprint(out.w, pterm.FgCyan.Sprint("> "))
					}
					if !in.Scan() {
						return in.Err()
					}
					text := strings.TrimSpace(in.Text())
					switch text {
					case "":
						continue
					case "exit", "quit":
						return nil
					}
					if err := send(text); err != nil {
						printError(cmd.ErrOrStderr(), err)
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "System message that starts the conversation")
	return cmd
}
