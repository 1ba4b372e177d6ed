package root

import (
	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:           "todo",
	Short:         "Todo API CLI",
	Long:          "Command line interface for the todo API. Set TODO_API_URL to point at a server other than http://localhost:8080.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
