package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and clear the local batch cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop all cached entries and the persisted snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := initEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.Batch.ClearCache(cmd.Context()); err != nil {
			return eris.Wrap(err, "cache clear")
		}
		fmt.Println("Cache cleared.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
