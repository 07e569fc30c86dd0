package cli

import (
	"fmt"

	"github.com/funnelalchemy/prospect-scorer/internal/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the scorer version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Current)
	},
}
