package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/berrytrace/coldchain-cli/internal/normalize"
)

var qualityCmd = &cobra.Command{
	Use:   "quality",
	Short: "Assess berry quality and agent recommendations",
}

// -- quality assess --

var qualityAssessCmd = &cobra.Command{
	Use:   "assess <batch-id>",
	Short: "Run a fresh quality assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		qa, err := e.Quality.Assess(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "quality assess")
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(os.Stdout, qa)
		}

		cat := normalize.CategorizeScore(qa.QualityScore, qa.QualityScore > 0)
		fmt.Printf("Batch %s (%s)\n", qa.BatchID, qa.BerryType)
		fmt.Printf("  Quality score:  %.1f (%s)\n", qa.QualityScore, cat.Category)
		fmt.Printf("  Shelf life:     %.1f hours\n", qa.ShelfLifeHours)
		fmt.Printf("  Breaches:       %d (%.1f%%)\n", qa.BreachCount, qa.BreachPercentage)
		fmt.Printf("  Action:         %s [%s]\n", qa.RecommendedAction, qa.Action.Color())
		if qa.ActionDescription != "" {
			fmt.Printf("  Detail:         %s\n", qa.ActionDescription)
		}
		return nil
	},
}

// -- quality recommendations --

var qualityRecommendCmd = &cobra.Command{
	Use:     "recommendations <batch-id>",
	Aliases: []string{"recommend"},
	Short:   "Show recommended actions for a batch",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		set, err := e.Quality.Recommendations(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "quality recommendations")
		}

		if set.Degraded {
			fmt.Fprintln(os.Stderr, "Warning: backend unavailable, showing fallback recommendations.")
		}
		return printJSON(os.Stdout, set)
	},
}

func init() {
	qualityAssessCmd.Flags().Bool("json", false, "output as JSON")

	qualityCmd.AddCommand(qualityAssessCmd, qualityRecommendCmd)
	rootCmd.AddCommand(qualityCmd)
}
