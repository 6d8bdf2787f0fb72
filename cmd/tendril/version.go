package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tendrilhq/tendril"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of tendril",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("tendril version %s\n", strings.TrimSpace(tendril.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
