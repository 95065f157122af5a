package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the wx-storage client.
// It registers the event, kv and stats command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "wxstore",
		Short: "wx-storage client commands",
	}
	root.AddCommand(NewEventCommand())
	root.AddCommand(NewKVCommand())
	root.AddCommand(NewStatsCommand(baseURL))
	return root
}
