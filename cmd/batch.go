package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Manage berry shipment batches",
	Long:  "Commands for creating, listing, inspecting, and completing shipment batches.",
}

// -- batch list --

var batchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all known batches",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		batches, err := e.Batch.List(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "batch list")
		}

		if len(batches) == 0 {
			fmt.Fprintln(os.Stderr, "No batches found.")
			return nil
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(os.Stdout, batches)
		}

		formatBatchList(batches)
		return nil
	},
}

func formatBatchList(batches []normalize.Batch) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBERRY\tSTATUS\tQUALITY\tSHELF LIFE (H)\tACTIVE")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%v\n",
			b.BatchID, b.BerryType, b.BatchStatus,
			formatScore(b.QualityScore), formatScore(b.PredictedShelfLifeHours), b.IsActive)
	}
	tw.Flush()
}

func formatScore(f float64) string {
	if f == 0 {
		return "-"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// -- batch create --

var batchCreateCmd = &cobra.Command{
	Use:   "create <berry-type>",
	Short: "Start a new shipment batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		b, err := e.Batch.Create(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "batch create")
		}

		return printJSON(os.Stdout, b)
	},
}

// -- batch show --

var batchShowCmd = &cobra.Command{
	Use:   "show <batch-id>",
	Short: "Show one batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		b, err := e.Batch.Get(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "batch show")
		}

		return printJSON(os.Stdout, b)
	},
}

// -- batch report --

var batchReportCmd = &cobra.Command{
	Use:   "report <batch-id>",
	Short: "Show the full batch report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		r, err := e.Batch.Report(cmd.Context(), args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (showing last known details)\n", err)
		}

		return printJSON(os.Stdout, r)
	},
}

// -- batch complete --

var batchCompleteCmd = &cobra.Command{
	Use:   "complete <batch-id>",
	Short: "Mark a batch as delivered",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.Batch.Complete(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "batch complete")
		}

		return printJSON(os.Stdout, p)
	},
}

// -- batch sequence --

var (
	seqTemps    []float64
	seqLocs     []string
	seqComplete bool
)

var batchSequenceCmd = &cobra.Command{
	Use:   "sequence <berry-type>",
	Short: "Run a full batch lifecycle in one call",
	Long:  "Creates a batch, records each --temp at the matching --location, and optionally completes the shipment.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.Batch.RunSequence(cmd.Context(), args[0], seqTemps, seqLocs, seqComplete)
		if err != nil {
			return eris.Wrap(err, "batch sequence")
		}

		return printJSON(os.Stdout, p)
	},
}

func init() {
	batchListCmd.Flags().Bool("json", false, "output as JSON")

	batchSequenceCmd.Flags().Float64SliceVar(&seqTemps, "temp", nil, "temperature reading (repeatable)")
	batchSequenceCmd.Flags().StringSliceVar(&seqLocs, "location", nil, "reading location (repeatable, one per --temp)")
	batchSequenceCmd.Flags().BoolVar(&seqComplete, "complete", false, "complete the shipment at the end")

	batchCmd.AddCommand(batchListCmd, batchCreateCmd, batchShowCmd, batchReportCmd, batchCompleteCmd, batchSequenceCmd)
	rootCmd.AddCommand(batchCmd)
}
