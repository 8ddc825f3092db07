package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentdesk"
	"github.com/hupe1980/agentdesk/config"
)

func newServeCommand(load configLoader) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"s"},
		Short:   "Serve the chat webhook",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.ListenAddr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides listen_addr)")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	desk, err := agentdesk.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer desk.Close()

	return desk.Run(ctx)
}
