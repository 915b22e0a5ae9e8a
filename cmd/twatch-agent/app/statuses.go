package app

import (
	"fmt"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/trailwatch-io/trailwatch/internal/engine/model"
	"github.com/trailwatch-io/trailwatch/internal/engine/state"
)

// newStatusesCommand prints the status classification reference: wire code,
// display category and sort priority for every known trailer status.
func newStatusesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "statuses",
		Short: "Print the trailer status classification table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			table := uitable.New()
			table.AddRow("STATUS", "WIRE", "CATEGORY", "PRIORITY")
			for _, s := range model.AllStatuses {
				table.AddRow(string(s), state.StatusToWire(s), string(state.Categorize(s)), state.Priority(s))
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), table)
			return err
		},
	}
}
