// Package cli implements the anprctl commands.
package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	vimage "anpr-validator/internal/image"
	"anpr-validator/internal/record"
)

var (
	okLabel      = color.New(color.FgGreen).Sprint("OK     ")
	missingLabel = color.New(color.FgRed).Sprint("MISSING")
	emptyLabel   = color.New(color.FgYellow).Sprint("EMPTY  ")
)

// CheckCmd returns the check command for validating a dataset before review.
func CheckCmd() *cobra.Command {
	var csvPath, imageDir string
	var verbose bool
	var pairThreshold float64

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a dataset and resolve its images",
		Long: `Check that a recognizer export can be reviewed.

Verifies the required columns and resolves every image reference against
the image folder the same way the validator does.

Examples:
  anprctl check --csv pass.csv --images ./captures
  anprctl check --csv pass.csv --images ./captures --verbose
  anprctl check --csv pass.csv --images ./captures --pairs 0.6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			ds, err := record.Load(csvPath)
			if err != nil {
				return err
			}

			n, err := vimage.CountImages(imageDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Dataset: %s (%d records)\n", csvPath, ds.Len())
			fmt.Fprintf(out, "Images:  %s (%d files)\n\n", imageDir, n)

			res := vimage.NewResolver(imageDir)
			var found, missing, empty int
			for i := 0; i < ds.Len(); i++ {
				rec, _ := ds.At(i)
				for _, side := range vimage.Sides {
					ref := rec.ImageRef(side)
					label := okLabel
					detail := ""
					switch path, err := res.Resolve(ref); {
					case ref == "":
						empty++
						label = emptyLabel
					case errors.Is(err, vimage.ErrImageNotFound):
						missing++
						label = missingLabel
						detail = ref
					default:
						found++
						detail = path
					}
					if verbose || label != okLabel {
						fmt.Fprintf(out, "%s %-12s %-5s %s\n", label, rec.ID(), side.Key(), detail)
					}
				}
			}

			if pairThreshold > 0 {
				fmt.Fprintln(out)
				printPairs(cmd, ds, pairThreshold)
			}

			fmt.Fprintf(out, "\n%d found, %d missing, %d empty\n", found, missing, empty)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "Recognizer export (CSV)")
	cmd.Flags().StringVar(&imageDir, "images", "", "Folder holding the captures")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List resolved images too")
	cmd.Flags().Float64Var(&pairThreshold, "pairs", 0, "List records whose front and rear readings agree less than this (0-1)")
	cmd.MarkFlagRequired("csv")
	cmd.MarkFlagRequired("images")

	return cmd
}

// printPairs lists records whose front and rear readings disagree.
func printPairs(cmd *cobra.Command, ds *record.Dataset, threshold float64) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Front/rear agreement below %.0f%%:\n", threshold*100)
	n := 0
	for i := 0; i < ds.Len(); i++ {
		rec, _ := ds.At(i)
		s, ok := record.PairSimilarity(rec)
		if !ok || s >= threshold {
			continue
		}
		n++
		fmt.Fprintf(out, "  %-12s %-12s %-12s %3.0f%%\n",
			rec.ID(), rec.Text(vimage.SideFront), rec.Text(vimage.SideRear), s*100)
	}
	if n == 0 {
		fmt.Fprintln(out, "  (none)")
	}
}
