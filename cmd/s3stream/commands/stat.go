package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/input-output-hk/catalyst-forge-libs/s3stream/bytesize"
)

func newStatCmd(a *app) *cobra.Command {
	var human bool

	cmd := &cobra.Command{
		Use:   "stat <bucket> <key>",
		Short: "Print the size of an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			size, err := a.client.Stat(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			if human {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), bytesize.Size(size).String())
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), size)
			return err
		},
	}

	cmd.Flags().BoolVarP(&human, "human", "H", false, "print the size in human-readable units")
	return cmd
}
