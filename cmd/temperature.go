package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/berrytrace/coldchain-cli/internal/temperature"
)

var temperatureCmd = &cobra.Command{
	Use:     "temperature",
	Aliases: []string{"temp"},
	Short:   "Record and inspect temperature readings",
}

// -- temperature record --

var tempLocation string

var temperatureRecordCmd = &cobra.Command{
	Use:   "record <batch-id> <celsius>",
	Short: "Record a temperature reading for a batch",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		temp, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Errorf("invalid temperature %q", args[1])
		}

		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		p, err := e.Temperature.Record(cmd.Context(), args[0], temp, tempLocation)
		if err != nil {
			return eris.Wrap(err, "temperature record")
		}

		return printJSON(os.Stdout, p)
	},
}

// -- temperature history --

var temperatureHistoryCmd = &cobra.Command{
	Use:   "history <batch-id>",
	Short: "Show the temperature history of a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		readings, err := e.Temperature.History(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "temperature history")
		}

		if len(readings) == 0 {
			fmt.Fprintln(os.Stderr, "No readings recorded.")
			return nil
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(os.Stdout, readings)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TIMESTAMP\tTEMP (C)\tLOCATION\tBREACH")
		for _, r := range readings {
			fmt.Fprintf(tw, "%s\t%.1f\t%s\t%v\n", r.Timestamp, r.Temperature, r.Location, r.IsBreached)
		}
		tw.Flush()
		return nil
	},
}

// -- temperature stats --

var temperatureStatsCmd = &cobra.Command{
	Use:   "stats <batch-id>",
	Short: "Show breach statistics for a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		readings, err := e.Temperature.History(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "temperature stats")
		}

		return printJSON(os.Stdout, temperature.Stats(readings))
	},
}

func init() {
	temperatureRecordCmd.Flags().StringVar(&tempLocation, "location", "", "reading location (required)")
	temperatureHistoryCmd.Flags().Bool("json", false, "output as JSON")

	temperatureCmd.AddCommand(temperatureRecordCmd, temperatureHistoryCmd, temperatureStatsCmd)
	rootCmd.AddCommand(temperatureCmd)
}
