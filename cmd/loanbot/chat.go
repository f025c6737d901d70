package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/loanbot/internal/cli"
	"github.com/Veraticus/loanbot/internal/service"
	"github.com/Veraticus/loanbot/internal/tui"
	"github.com/Veraticus/loanbot/internal/tui/themes"
)

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the loan eligibility assistant",
		Long: `Start an interactive screening conversation.

The assistant asks for your monthly income, monthly debt payments, the loan
amount, your employment status and credit score range. Once everything is
known it shows an eligibility decision with next steps. Personal data such as
phone numbers, emails and ID numbers is masked before it reaches the model.

By default a full-screen interface is used. Pass --plain for a line-based
conversation suitable for pipes and basic terminals.`,
		RunE: runChat,
	}

	cmd.Flags().Bool("plain", false, "Use the line-based interface instead of the full-screen one")
	cmd.Flags().Bool("no-store", false, "Do not record conversation metrics")
	cmd.Flags().String("theme", "default", "Color theme for the full-screen interface ("+strings.Join(themes.Names(), ", ")+")")
	cmd.Flags().Bool("no-sidebar", false, "Hide the collected information sidebar")

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	plain, _ := cmd.Flags().GetBool("plain")
	noStore, _ := cmd.Flags().GetBool("no-store")
	themeName, _ := cmd.Flags().GetString("theme")
	noSidebar, _ := cmd.Flags().GetBool("no-sidebar")

	cfg, err := currentConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	client, err := createLLMClient(cfg)
	if err != nil {
		return err
	}

	var sink service.MetricsSink
	if !noStore {
		store, storeErr := initStorage(ctx, cfg)
		if storeErr != nil {
			return fmt.Errorf("failed to initialize storage: %w", storeErr)
		}
		defer closeStore(store)
		sink = store
	}
	bot := newBot(cfg, client, sink, nil)

	if plain {
		interrupts := cli.NewInterruptHandler(cmd.ErrOrStderr())
		ctx = interrupts.HandleInterrupts(ctx)
		return cli.NewREPL(bot, cmd.InOrStdin(), cmd.OutOrStdout()).
			WithInterrupts(interrupts).
			Run(ctx)
	}

	return tui.Run(ctx, bot, os.Stdin, os.Stdout,
		tui.WithTheme(themes.GetTheme(themeName)),
		tui.WithSidebar(!noSidebar),
	)
}
