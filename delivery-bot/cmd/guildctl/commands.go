package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"draftmail/delivery-bot/internal/store"
	"draftmail/pkg/secret"
)

func newListCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured guilds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			all, err := e.store.List(cmd.Context())
			if err != nil {
				return err
			}

			ids := make([]string, 0, len(all))
			for id := range all {
				ids = append(ids, id)
			}
			sort.Strings(ids)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "GUILD\tADDRESS\tSECRET\tUPDATED")
			for _, id := range ids {
				acc := all[id]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", id, acc.Address, acc.Secret, formatTime(acc.UpdatedAt))
			}
			return w.Flush()
		},
	}
}

func newGetCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <guild-id>",
		Short: "Show one guild's account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc, err := e.store.Get(cmd.Context(), args[0])
			if errors.Is(err, store.ErrNotFound) {
				return fmt.Errorf("guild %s has no account; it sends from the default sender", args[0])
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Guild:    %s\n", args[0])
			fmt.Fprintf(out, "Address:  %s\n", acc.Address)
			fmt.Fprintf(out, "Secret:   %s\n", acc.Secret)
			fmt.Fprintf(out, "Updated:  %s\n", formatTime(acc.UpdatedAt))
			return nil
		},
	}
}

func newSetCmd(e *env) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "set <guild-id> <address>",
		Short: "Set a guild's sender account",
		Long: `Set a guild's sender account. The app password is read from the first
line of stdin unless --password is given.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guildID, address := args[0], strings.TrimSpace(args[1])
			if err := validator.New().Var(address, "required,email"); err != nil {
				return fmt.Errorf("%q is not a valid email address", address)
			}

			if password == "" {
				line, err := readLine(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading app password: %w", err)
				}
				password = line
			}
			if password == "" {
				return errors.New("app password cannot be empty")
			}

			ref, err := e.secrets.Seal(cmd.Context(), password)
			if err != nil {
				return fmt.Errorf("sealing secret with %s backend: %w", e.secrets.Name(), err)
			}
			acc := store.Account{Address: address, Secret: ref, UpdatedAt: time.Now().UTC()}
			if err := e.store.Put(cmd.Context(), guildID, acc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Guild %s now sends from %s\n", guildID, address)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "app password (visible in shell history; prefer stdin)")
	return cmd
}

func newDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <guild-id>",
		Short: "Remove a guild's account so it falls back to the default sender",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.store.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("guild %s has no account", args[0])
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted account for guild %s\n", args[0])
			return nil
		},
	}
}

func newSealCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "seal",
		Short: "Re-seal clear-text secrets with the configured secret backend",
		Long: `Re-seal every guild secret stored in clear text (plain: or no scheme)
using the configured secret backend. Run after switching secrets.backend to aead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.secrets.Name() == secret.SchemePlain {
				return errors.New("secrets.backend is plain; nothing to seal with")
			}

			ctx := cmd.Context()
			all, err := e.store.List(ctx)
			if err != nil {
				return err
			}

			sealed := 0
			for guildID, acc := range all {
				if scheme, _ := acc.Secret.Scheme(); scheme != secret.SchemePlain {
					continue
				}
				plaintext, err := e.secrets.Open(ctx, acc.Secret)
				if err != nil {
					return fmt.Errorf("guild %s: %w", guildID, err)
				}
				ref, err := e.secrets.Seal(ctx, plaintext)
				if err != nil {
					return fmt.Errorf("guild %s: %w", guildID, err)
				}
				acc.Secret = ref
				if err := e.store.Put(ctx, guildID, acc); err != nil {
					return fmt.Errorf("guild %s: %w", guildID, err)
				}
				sealed++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sealed %d of %d guild secrets with %s\n", sealed, len(all), e.secrets.Name())
			return nil
		},
	}
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key for the aead secret backend",
		Long: fmt.Sprintf(`Generate a random 32-byte key, base64 encoded. Export it as %s
(or the variable named by secrets.key_env) for the aead backend.`, secret.DefaultKeyEnv),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secret.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
