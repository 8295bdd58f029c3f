package commands

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew/core"
)

func newRunCommand(g *globalOptions) *cobra.Command {
	var (
		agents []string
		mode   string
		flags  taskFlags
	)

	cmd := &cobra.Command{
		Use:   "run [flags] <instruction>",
		Short: "Run a task across one or more agents",
		Long: `Run a task. Agents run in the given order; without --agent the keyword
router picks one. Modes: sequential (default), parallel, hierarchical.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := core.ParseMode(mode)
			if err != nil {
				return err
			}

			crew, err := g.newCrew(cmd.Context())
			if err != nil {
				return err
			}
			defer crew.Close()

			task := flags.task(args)
			task.Agents = agents
			task.Mode = m

			res, err := crew.RunTask(cmd.Context(), task)
			if err != nil {
				return err
			}

			return writeResult(cmd.OutOrStdout(), g.outputJSON, res)
		},
	}

	cmd.Flags().StringArrayVarP(&agents, "agent", "a", nil, "target agent id (repeatable, order matters)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "sequential", "collaboration mode: sequential, parallel or hierarchical")
	flags.register(cmd)

	return cmd
}
