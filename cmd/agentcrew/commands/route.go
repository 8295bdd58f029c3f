package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew/router"
)

type routeOutput struct {
	Agent  string         `json:"agent"`
	Scores []router.Score `json:"scores"`
}

func newRouteCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "route <text>",
		Short: "Show which agent the keyword router picks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			r := router.New(func(o *router.Options) {
				o.Routes = cfg.Router.Routes
				o.DefaultAgent = cfg.Router.DefaultAgent
			})

			text := strings.Join(args, " ")
			out := routeOutput{Agent: r.Select(text), Scores: r.Scores(text)}

			if g.outputJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, out.Agent)

			for _, s := range out.Scores {
				fmt.Fprintf(w, "  %-20s %d\n", s.AgentID, s.Hits)
			}

			return nil
		},
	}
}
