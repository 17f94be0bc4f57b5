package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/koustreak/dbchat/internal/database"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// output renders command results either as pterm tables and messages or,
// with --json, as indented JSON.
type output struct {
	w           io.Writer
	json        bool
	interactive bool
}

func newOutput(cmd *cobra.Command, jsonOut bool) *output {
	w := cmd.OutOrStdout()
	return &output{w: w, json: jsonOut, interactive: !jsonOut && w == os.Stdout}
}

func (o *output) printJSON(v any) error {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// spin shows a spinner on a terminal and returns the function that stops it.
func (o *output) spin(text string) func() {
	if !o.interactive {
		return func() {}
	}
	sp, err := pterm.DefaultSpinner.WithRemoveWhenDone(true).Start(text)
	if err != nil {
		return func() {}
	}
	return func() { _ = sp.Stop() }
}

func (o *output) success(format string, args ...any) {
	fmt.Fprint(o.w, pterm.Success.Sprintfln(format, args...))
}

func (o *output) info(format string, args ...any) {
	fmt.Fprint(o.w, pterm.Info.Sprintfln(format, args...))
}

// grid prints a result grid. The first row is the header.
func (o *output) grid(g database.Grid) error {
	if o.json {
		if g == nil {
			g = database.Grid{}
		}
		return o.printJSON(g)
	}
	if len(g) == 0 {
		o.info("No rows returned.")
		return nil
	}
	return o.table(pterm.TableData(g))
}

func (o *output) table(data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(o.w, s)
	return err
}

// query prints a generated query and the model's summary of it.
func (o *output) query(summary, sqlText string) {
	if summary != "" {
		fmt.Fprintln(o.w, pterm.Bold.Sprint(summary))
	}
	fmt.Fprintln(o.w, pterm.DefaultBox.WithTitle("SQL").Sprint(sqlText))
}
