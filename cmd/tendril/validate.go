package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tendrilhq/tendril/internal/validator"
	"github.com/tendrilhq/tendril/pkg/adapters/memory"
)

var validateCmd = &cobra.Command{
	Use:   "validate <flows.yaml>",
	Short: "Validate a flow catalog",
	Long:  `Checks every flow in the catalog for structural problems: dangling edges, missing entry nodes, button options without edges and unreachable nodes.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flows, err := memory.LoadCatalog(args[0])
		if err != nil {
			return err
		}

		failures := 0
		for _, flow := range flows.All() {
			if err := validator.ValidateFlow(flow); err != nil {
				failures++
				fmt.Printf("FAIL %s\n", err)
				continue
			}
			fmt.Printf("ok   %s\n", flow.ID)
		}
		if failures > 0 {
			return fmt.Errorf("%d flow(s) failed validation", failures)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
