package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  `Display the current version of the arbibot CLI.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("arbibot version %s\n", version)
		fmt.Println("A small-capital mean-reversion trading engine")
		fmt.Println("https://github.com/rustyeddy/arbibot")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
