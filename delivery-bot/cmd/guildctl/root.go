package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"draftmail/delivery-bot/internal/config"
	"draftmail/delivery-bot/internal/store"
	"draftmail/pkg/logger"
	"draftmail/pkg/secret"
)

// env holds what every subcommand needs.
type env struct {
	cfg     *config.Config
	store   store.Store
	secrets secret.Backend
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	var (
		e           env
		storePath   string
		backendName string
	)

	root := &cobra.Command{
		Use:   "guildctl",
		Short: "Inspect and edit the delivery bot's guild mail accounts",
		Long: `guildctl reads the delivery bot's configuration and operates on the
same guild store the bot uses. Secrets are never printed.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "keygen" {
				return nil
			}
			cfg, err := config.LoadUnvalidated()
			if err != nil {
				return err
			}
			if storePath != "" {
				cfg.Store.Backend = "file"
				cfg.Store.Path = storePath
			}
			if backendName != "" {
				cfg.Secrets.Backend = backendName
			}

			e.cfg = cfg
			e.logger = logger.NewLogger(cfg.Env, cfg.Log)
			e.store, err = store.Open(cmd.Context(), cfg.Store, e.logger)
			if err != nil {
				return fmt.Errorf("opening guild store: %w", err)
			}
			e.secrets, err = secret.NewBackend(cfg.Secrets)
			if err != nil {
				return fmt.Errorf("creating secret backend: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if e.store != nil {
				return e.store.Close()
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&storePath, "file", "", "operate on this guild store file instead of the configured store")
	root.PersistentFlags().StringVar(&backendName, "secret-backend", "", "override secrets.backend (plain, aead, env)")
	root.SetContext(context.Background())

	root.AddCommand(
		newListCmd(&e),
		newGetCmd(&e),
		newSetCmd(&e),
		newDeleteCmd(&e),
		newSealCmd(&e),
		newKeygenCmd(),
	)
	return root
}
