package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/berrytrace/coldchain-cli/internal/token"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage farm token offerings",
}

// -- token create --

var tokenInput token.Input

var tokenCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a token offering (requires login)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		id, err := e.Token.Create(cmd.Context(), tokenInput)
		if err != nil {
			return eris.Wrap(err, "token create")
		}

		return printJSON(os.Stdout, map[string]string{"token_id": id})
	},
}

// -- token list --

var tokenListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open token offerings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		set, err := e.Token.List(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "token list")
		}

		warnDegraded(set.Degraded)
		return printJSON(os.Stdout, set)
	},
}

// -- token show --

var tokenShowCmd = &cobra.Command{
	Use:   "show <token-id>",
	Short: "Show one token offering",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		res, err := e.Token.Get(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "token show")
		}

		warnDegraded(res.Degraded)
		return printJSON(os.Stdout, res)
	},
}

// -- token mine --

var tokenMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List offerings created by the logged-in user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		set, err := e.Token.Mine(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "token mine")
		}

		warnDegraded(set.Degraded)
		return printJSON(os.Stdout, set)
	},
}

func warnDegraded(degraded bool) {
	if degraded {
		fmt.Fprintln(os.Stderr, "Warning: backend unavailable, showing fallback data.")
	}
}

func init() {
	tokenCreateCmd.Flags().StringVar(&tokenInput.Name, "name", "", "token name (required)")
	tokenCreateCmd.Flags().StringVar(&tokenInput.Symbol, "symbol", "", "ticker symbol (required)")
	tokenCreateCmd.Flags().StringVar(&tokenInput.Description, "description", "", "offering description")
	tokenCreateCmd.Flags().Float64Var(&tokenInput.TotalSupply, "supply", 0, "total token supply")
	tokenCreateCmd.Flags().Float64Var(&tokenInput.FundingGoal, "goal", 0, "funding goal")
	tokenCreateCmd.Flags().Float64Var(&tokenInput.ExpectedYield, "yield", 0, "expected yield percent")

	tokenCmd.AddCommand(tokenCreateCmd, tokenListCmd, tokenShowCmd, tokenMineCmd)
	rootCmd.AddCommand(tokenCmd)
}
