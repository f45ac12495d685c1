// Version command for the loungepos CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vileopratama/vitech/pkg/lounge"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the loungepos version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "loungepos", lounge.Version)
	},
}
