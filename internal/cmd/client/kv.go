package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewKVCommand constructs the `kv` command group for scalar state.
func NewKVCommand() *cobra.Command {
	kvCmd := &cobra.Command{Use: "kv", Short: "Scalar key/value operations"}
	kvCmd.AddCommand(
		&cobra.Command{
			Use:   "put KEY VALUE",
			Short: "Set a scalar value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := getTransport().PutScalar(cmd.Context(), args[0], []byte(args[1])); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "status:", "OK")
				return nil
			},
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print a scalar value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := getTransport().GetScalar(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, _ = cmd.OutOrStdout().Write(append(v, '\n'))
				return nil
			},
		},
	)
	return kvCmd
}
