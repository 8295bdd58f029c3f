package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew/config"
)

type agentOutput struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Provider     string   `json:"provider"`
	Capabilities []string `json:"capabilities,omitempty"`
	Real         bool     `json:"is_real"`
}

func newAgentsCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List configured agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}

			out := make([]agentOutput, 0, len(cfg.Agents))
			for _, a := range cfg.Agents {
				out = append(out, agentOutput{
					ID:           a.ID,
					Name:         a.Name,
					Provider:     string(a.Provider),
					Capabilities: a.Capabilities,
					Real:         a.Provider != config.ProviderNone,
				})
			}

			if g.outputJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			w := cmd.OutOrStdout()
			for _, a := range out {
				fmt.Fprintf(w, "%-20s %-10s %s\n", a.ID, a.Provider, strings.Join(a.Capabilities, ","))
			}

			return nil
		},
	}
}
