package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDispatchCommand(g *globalOptions) *cobra.Command {
	var (
		agent string
		flags taskFlags
	)

	cmd := &cobra.Command{
		Use:   "dispatch --agent <id> <instruction>",
		Short: "Send a task to a single agent",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			crew, err := g.newCrew(cmd.Context())
			if err != nil {
				return err
			}
			defer crew.Close()

			res := crew.DispatchSingle(cmd.Context(), agent, flags.task(args))

			if g.outputJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)

			return err
		},
	}

	cmd.Flags().StringVarP(&agent, "agent", "a", "", "target agent id")
	_ = cmd.MarkFlagRequired("agent")
	flags.register(cmd)

	return cmd
}
