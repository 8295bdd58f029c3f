package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentcrew"
	"github.com/hupe1980/agentcrew/config"
	"github.com/hupe1980/agentcrew/core"
)

// globalOptions holds persistent flags shared by every command.
type globalOptions struct {
	configFile string
	logLevel   string
	outputJSON bool
}

// Execute runs the root command against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "agentcrew",
		Short: "Run tasks across a crew of text-generation agents",
		Long: `AgentCrew dispatches a task to one or many independently failing agents,
composes their answers sequentially, in parallel or hierarchically, and
reduces whatever the backends return to clean text.

Examples:
  # Ask two agents in parallel
  agentcrew run --config crew.yaml --mode parallel -a tutor -a exam_generator "Explain photosynthesis"

  # Let the router pick an agent
  agentcrew run --config crew.yaml "Summarize chapter three"

  # Inspect routing
  agentcrew route "make me a quiz about cells"
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "YAML config file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override log.level from the config (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&g.outputJSON, "json", false, "output as JSON (for piping)")

	root.AddCommand(
		newRunCommand(g),
		newDispatchCommand(g),
		newRouteCommand(g),
		newAgentsCommand(g),
	)

	return root
}

// loadConfig reads --config, or returns the defaults when it is empty.
func (g *globalOptions) loadConfig() (config.Config, error) {
	cfg := config.Default()

	if g.configFile != "" {
		var err error

		cfg, err = config.Load(g.configFile)
		if err != nil {
			return config.Config{}, err
		}
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}

	return cfg, nil
}

func (g *globalOptions) newCrew(ctx context.Context) (*agentcrew.AgentCrew, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, err
	}

	return agentcrew.NewFromConfig(ctx, cfg)
}

// taskFlags are shared by run and dispatch.
type taskFlags struct {
	context map[string]string
}

func (f *taskFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringToStringVar(&f.context, "context", nil, "task context as key=value (repeatable)")
}

func (f *taskFlags) task(args []string) core.Task {
	t := core.NewTask(strings.Join(args, " "))
	for k, v := range f.context {
		t.Context[k] = v
	}

	return t
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

func writeResult(w io.Writer, asJSON bool, res core.CollaborationResult) error {
	if asJSON {
		return writeJSON(w, res)
	}

	for i, e := range res.Entries {
		if i > 0 {
			fmt.Fprintln(w)
		}

		label := e.AgentID
		if e.Role != core.RoleStep {
			label += " (" + string(e.Role) + ")"
		}

		if e.Result.Degraded() {
			label += " [fallback: " + e.Result.Reason + "]"
		}

		fmt.Fprintf(w, "== %s ==\n%s\n", label, e.Result.Text)
	}

	return nil
}
