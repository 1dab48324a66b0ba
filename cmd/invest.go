package main

import (
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var investCmd = &cobra.Command{
	Use:   "invest",
	Short: "Invest in farm tokens and inspect your portfolio",
}

// -- invest in --

var investInCmd = &cobra.Command{
	Use:   "in <token-id> <amount>",
	Short: "Stake an amount in a token (requires login)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return eris.Errorf("invalid amount %q", args[1])
		}

		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		txID, err := e.Invest.Invest(cmd.Context(), args[0], amount)
		if err != nil {
			return eris.Wrap(err, "invest")
		}

		return printJSON(os.Stdout, map[string]string{"transaction_id": txID})
	},
}

// -- invest list --

var investListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your investments",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		set, err := e.Invest.Investments(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "invest list")
		}

		warnDegraded(set.Degraded)
		return printJSON(os.Stdout, set)
	},
}

// -- invest portfolio --

var investPortfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Show aggregate portfolio statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		stats, err := e.Invest.Portfolio(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "invest portfolio")
		}

		warnDegraded(stats.Degraded)
		return printJSON(os.Stdout, stats)
	},
}

func init() {
	investCmd.AddCommand(investInCmd, investListCmd, investPortfolioCmd)
	rootCmd.AddCommand(investCmd)
}
