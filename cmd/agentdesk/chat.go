package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentdesk"
	"github.com/hupe1980/agentdesk/config"
	"github.com/hupe1980/agentdesk/engine"
	"github.com/hupe1980/agentdesk/transport/webhook"
)

const chatPrompt = "you> "

// lineReader is the part of *readline.Instance the chat loop uses.
type lineReader interface {
	Readline() (string, error)
}

func newChatCommand(load configLoader) *cobra.Command {
	var (
		offline  bool
		identity string
	)

	cmd := &cobra.Command{
		Use:     "chat",
		Aliases: []string{"c"},
		Short:   "Chat with the desk in the terminal",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if offline {
				cfg.Provider = config.ProviderOffline
			}

			desk, err := agentdesk.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer desk.Close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          chatPrompt,
				HistoryFile:     filepath.Join(os.TempDir(), ".agentdesk_history"),
				HistoryLimit:    100,
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("initialize readline: %w", err)
			}
			defer rl.Close()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Chatting as %s with %s. Type exit, quit or bye to leave.\n", identity, desk.Catalog().DefaultName())

			return chatLoop(cmd.Context(), rl, out, desk, identity)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Use the built-in offline model instead of a provider")
	cmd.Flags().StringVarP(&identity, "identity", "i", "cli", "Conversation identity")

	return cmd
}

// chatLoop feeds lines to handler until an exit keyword, EOF or interrupt.
// Turn errors are printed and the loop continues.
func chatLoop(ctx context.Context, r lineReader, out io.Writer, handler webhook.MessageHandler, identity string) error {
	for {
		line, err := r.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "Goodbye!")
				return nil
			}
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		reply, err := handler.HandleMessage(ctx, identity, input)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "desk> %s\n", reply)

		if engine.IsExitKeyword(input) {
			return nil
		}
	}
}
