// Package cli implements the dbchat command line: schema inspection, raw
// queries, natural-language questions, chat, stored connections, query
// history and the long-running HTTP and MCP servers.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/koustreak/dbchat/internal/assistant"
	"github.com/koustreak/dbchat/internal/config"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags every subcommand sees.
type globalOptions struct {
	configPath string
	connection string
	provider   string
	model      string
	jsonOut    bool

	open opener
}

// connectionName is the connection a command targets.
func (o *globalOptions) connectionName() string {
	if o.connection != "" {
		return o.connection
	}
	return config.DefaultConnectionName
}

// run opens the app, attaches its logger to the command context and hands
// both to fn. The app is closed when fn returns.
func (o *globalOptions) run(cmd *cobra.Command, fn func(ctx context.Context, a *app, out *output) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := o.open(ctx, o)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			a.log.Warnf("failed to close resources: %v", cerr)
		}
	}()
	return fn(a.log.WithContext(ctx), a, newOutput(cmd, o.jsonOut))
}

func newRootCmd(open opener) *cobra.Command {
	opts := &globalOptions{open: open}

	root := &cobra.Command{
		Use:   "dbchat",
		Short: "Ask your databases questions in plain language",
		Long: `dbchat turns natural-language questions into SQL for Microsoft SQL Server,
MySQL, PostgreSQL, Oracle and Snowflake, runs them and prints the results.

Connections come from the config file, DATABASETYPE/DATABASECONNECTIONSTRING
and the OS keychain. AI backends are AzureOpenAI, OpenAI, Ollama,
GitHubModels and AWSBedrock.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "", "Path to a YAML config file (default $DBCHAT_CONFIG)")
	pf.StringVar(&opts.connection, "connection", "", "Stored connection to use (default \""+config.DefaultConnectionName+"\")")
	pf.StringVar(&opts.provider, "provider", "", "AI platform: AzureOpenAI, OpenAI, Ollama, GitHubModels or AWSBedrock")
	pf.StringVar(&opts.model, "model", "", "AI model or Azure OpenAI deployment name")
	pf.BoolVar(&opts.jsonOut, "json", false, "Print JSON instead of tables")

	root.AddCommand(
		newSchemaCmd(opts),
		newQueryCmd(opts),
		newPreviewCmd(opts),
		newAskCmd(opts),
		newChatCmd(opts),
		newConnectionsCmd(opts),
		newHistoryCmd(opts),
		newServeCmd(opts),
		newMCPCmd(opts),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(openApp).ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError reports err and, for malformed model replies, the reply
// itself so the user can see what came back.
func printError(w io.Writer, err error) {
	fmt.Fprint(w, pterm.Error.Sprintln(err))
	if raw, ok := assistant.RawResponse(err); ok && raw != "" {
		fmt.Fprintln(w, "AI response:")
		fmt.Fprintln(w, raw)
	}
}
