package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentdesk/agent"
	"github.com/hupe1980/agentdesk/bakery"
	"github.com/hupe1980/agentdesk/tool"
)

func newAgentsCommand(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List agents, their tools and handoff targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			registry, err := tool.NewRegistry(bakery.NewToolkit(nil).Tools()...)
			if err != nil {
				return err
			}

			catalog := bakery.Catalog(cfg.ModelName)
			if err := catalog.Validate(registry); err != nil {
				return err
			}

			printAgents(cmd.OutOrStdout(), catalog, registry)
			return nil
		},
	}
}

func printAgents(w io.Writer, catalog *agent.Catalog, registry *tool.Registry) {
	edges := catalog.Edges(registry)

	for _, a := range catalog.Agents() {
		name := a.Name()
		if name == catalog.DefaultName() {
			name += " (default)"
		}

		fmt.Fprintf(w, "%s\n", name)
		if a.Description() != "" {
			fmt.Fprintf(w, "  %s\n", a.Description())
		}
		fmt.Fprintf(w, "  tools:     %s\n", strings.Join(a.Tools(), ", "))
		fmt.Fprintf(w, "  handoffs:  %s\n", strings.Join(edges[a.Name()], ", "))
	}
}
