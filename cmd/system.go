package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/berrytrace/coldchain-cli/internal/system"
)

var systemCmd = &cobra.Command{
	Use:   "system",
	Short: "System health and agent lifecycle",
}

// -- system health --

var healthReset bool

var systemHealthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run the system health check",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		metrics, err := e.System.Health(cmd.Context(), healthReset)
		if err != nil {
			if !eris.Is(err, system.ErrUnrecognizedHealth) {
				return eris.Wrap(err, "system health")
			}
			fmt.Fprintln(os.Stderr, "Warning: health payload not recognized, showing defaults.")
		}

		return printJSON(os.Stdout, metrics)
	},
}

// -- system status --

var systemStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show agent service status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.System.AgentStatus(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "system status")
		}

		return printJSON(os.Stdout, st)
	},
}

// -- system start / stop --

var systemStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the loaded agent",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.System.StartAgent(cmd.Context()); err != nil {
			return eris.Wrap(err, "system start")
		}
		fmt.Println("Agent running.")
		return nil
	},
}

var systemStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running agent",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.System.StopAgent(cmd.Context()); err != nil {
			return eris.Wrap(err, "system stop")
		}
		fmt.Println("Agent stopped.")
		return nil
	},
}

// -- system agents --

var agentToLoad string

var systemAgentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List agent configurations, optionally loading one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if agentToLoad != "" {
			if err := e.System.LoadAgent(cmd.Context(), agentToLoad); err != nil {
				return eris.Wrap(err, "system agents")
			}
			fmt.Printf("Agent %s loaded.\n", agentToLoad)
			return nil
		}

		agents, err := e.System.Agents(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "system agents")
		}
		return printJSON(os.Stdout, agents)
	},
}

// -- system connections --

var systemConnectionsCmd = &cobra.Command{
	Use:   "connections [name]",
	Short: "List connections, or the actions of one connection",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if len(args) == 1 {
			actions, err := e.System.ConnectionActions(cmd.Context(), args[0])
			if err != nil {
				return eris.Wrap(err, "system connections")
			}
			return printJSON(os.Stdout, actions)
		}

		conns, err := e.System.Connections(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "system connections")
		}
		return printJSON(os.Stdout, conns)
	},
}

// -- system transactions --

var (
	txPage     int
	txPageSize int
)

var systemTxCmd = &cobra.Command{
	Use:   "transactions [hash]",
	Short: "Show transaction history, or one transaction by hash",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if len(args) == 1 {
			res, err := e.System.Transaction(cmd.Context(), args[0])
			if err != nil {
				return eris.Wrap(err, "system transactions")
			}
			warnDegraded(res.Degraded)
			return printJSON(os.Stdout, res)
		}

		page, err := e.System.Transactions(cmd.Context(), txPage, txPageSize)
		if err != nil {
			return eris.Wrap(err, "system transactions")
		}
		warnDegraded(page.Degraded)

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return printJSON(os.Stdout, page)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tTIMESTAMP\tSUCCESS\tHASH")
		for _, tx := range page.Transactions {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%v\t%s\n", tx.ID, tx.Type, tx.Timestamp, tx.Success, tx.TransactionHash)
		}
		tw.Flush()
		fmt.Fprintf(os.Stderr, "Page %d of %d transactions.\n", page.Page, page.Total)
		return nil
	},
}

func init() {
	systemHealthCmd.Flags().BoolVar(&healthReset, "reset-counters", false, "reset backend counters after reading")
	systemAgentsCmd.Flags().StringVar(&agentToLoad, "load", "", "load the named agent configuration")
	systemTxCmd.Flags().IntVar(&txPage, "page", 1, "page number")
	systemTxCmd.Flags().IntVar(&txPageSize, "page-size", 10, "transactions per page")
	systemTxCmd.Flags().Bool("json", false, "output as JSON")

	systemCmd.AddCommand(systemHealthCmd, systemStatusCmd, systemStartCmd, systemStopCmd,
		systemAgentsCmd, systemConnectionsCmd, systemTxCmd)
	rootCmd.AddCommand(systemCmd)
}
