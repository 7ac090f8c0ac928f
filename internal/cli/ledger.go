package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"anpr-validator/internal/ledger"
	"anpr-validator/internal/record"
	"anpr-validator/internal/verdict"
)

// LedgerCmd returns the ledger command for inspecting review progress.
func LedgerCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "ledger FILE",
		Short: "Summarize a validation ledger",
		Long: `Summarize a validation ledger written by the validator.

Reads either the CSV ledger (*_VALIDATED.csv) or a SQLite mirror (*.db,
*.sqlite) and prints the verdict counts and the records that still have
an unjudged side.

Examples:
  anprctl ledger pass_VALIDATED.csv
  anprctl ledger review.db --all`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := readLedger(args[0])
			if err != nil {
				return err
			}
			printLedger(cmd.OutOrStdout(), args[0], entries, all)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every record, not only unfinished ones")
	return cmd
}

func readLedger(path string) ([]ledger.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return readSQLiteLedger(path)
	}
	return readCSVLedger(path)
}

func readCSVLedger(path string) ([]ledger.Row, error) {
	header, rows, err := ledger.ReadCSV(path)
	if err != nil {
		return nil, err
	}

	col := func(name string) int {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				return i
			}
		}
		return -1
	}
	idCol := col(record.ColumnID)
	frCol := col(ledger.ColumnFrontValidation)
	reCol := col(ledger.ColumnRearValidation)
	var missing []string
	for name, i := range map[string]int{
		record.ColumnID:              idCol,
		ledger.ColumnFrontValidation: frCol,
		ledger.ColumnRearValidation:  reCol,
	} {
		if i < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &record.MissingColumnsError{Columns: missing}
	}

	field := func(row []string, i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	entries := make([]ledger.Row, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ledger.Row{
			ID:    field(row, idCol),
			Front: verdict.Verdict(field(row, frCol)),
			Rear:  verdict.Verdict(field(row, reCol)),
		})
	}
	return entries, nil
}

func readSQLiteLedger(path string) ([]ledger.Row, error) {
	store, err := ledger.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	verdicts, err := store.Verdicts()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger %s: %w", path, err)
	}
	ids := make([]string, 0, len(verdicts))
	for id := range verdicts {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entries := make([]ledger.Row, 0, len(ids))
	for _, id := range ids {
		v := verdicts[id]
		entries = append(entries, ledger.Row{ID: id, Front: verdict.Verdict(v[0]), Rear: verdict.Verdict(v[1])})
	}
	return entries, nil
}

func printLedger(out io.Writer, path string, entries []ledger.Row, all bool) {
	counts := make(map[verdict.Verdict]int)
	var complete int
	var open []ledger.Row
	for _, e := range entries {
		counts[e.Front]++
		counts[e.Rear]++
		if e.Complete() {
			complete++
		} else {
			open = append(open, e)
		}
	}

	fmt.Fprintf(out, "Ledger: %s\n", path)
	fmt.Fprintf(out, "Rows:   %d (%d complete, %d open)\n\n", len(entries), complete, len(open))

	fmt.Fprintf(out, "  %-18s %d\n", verdict.Correct.Label(), counts[verdict.Correct])
	for _, o := range verdict.Reasons() {
		if counts[o.Verdict] > 0 {
			fmt.Fprintf(out, "  %-18s %d\n", o.Label, counts[o.Verdict])
		}
	}
	fmt.Fprintf(out, "  %-18s %d\n", "Unjudged", counts[verdict.None])

	list := open
	if all {
		list = entries
	}
	if len(list) == 0 {
		return
	}
	fmt.Fprintln(out)
	for _, e := range list {
		fmt.Fprintf(out, "  %-12s front %-20s rear %s\n", e.ID, verdictCell(e.Front), verdictCell(e.Rear))
	}
}

func verdictCell(v verdict.Verdict) string {
	switch {
	case v == verdict.None:
		return color.New(color.FgYellow).Sprint("-")
	case v.IsCorrect():
		return color.New(color.FgGreen).Sprint(v.Label())
	case v.Valid():
		return color.New(color.FgRed).Sprint(v.Label())
	}
	return string(v)
}
