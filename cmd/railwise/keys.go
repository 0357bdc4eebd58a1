// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Railwise Contributors

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/railwise/railwise/internal/keypool"
	"github.com/railwise/railwise/internal/secrets"
	rwerr "github.com/railwise/railwise/pkg/errors"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage API keys stored in the OS keyring",
		Long: `Store, list, and delete API keys in the operating system keyring under the
railwise service. Reference a stored key from the config file as
keyring://railwise/<name>, e.g. in transit.keys or intent.providers.*.api_key.`,
	}

	cmd.AddCommand(
		newKeysSetCmd(),
		newKeysListCmd(),
		newKeysDeleteCmd(),
		newKeysPoolCmd(),
	)

	return cmd
}

func newKeysSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Store a key, read from --value or the first line of stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  runKeysSet,
	}
	cmd.Flags().String("value", "", "key value (prefer stdin to keep it out of shell history)")
	return cmd
}

func newKeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored key names and their config references",
		Args:  cobra.NoArgs,
		RunE:  runKeysList,
	}
}

func newKeysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a stored key",
		Args:  cobra.ExactArgs(1),
		RunE:  runKeysDelete,
	}
}

func newKeysPoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "Show the transit key pools the config resolves to",
		Args:  cobra.NoArgs,
		RunE:  runKeysPool,
	}
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	name := args[0]
	value, _ := cmd.Flags().GetString("value")
	if value == "" {
		v, err := readLine(cmd.InOrStdin())
		if err != nil {
			return err
		}
		value = v
	}
	if value == "" {
		return rwerr.New(rwerr.CodeCLIInputInvalid, "key value is empty")
	}

	if err := secretStoreFactory().Store(secrets.DefaultService, name, value); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s stored %s (%s)\nReference it in config as %s\n",
		successStyle.Render("ok"), name, keypool.Mask(value), secrets.URI(secrets.DefaultService, name))
	return nil
}

func runKeysList(cmd *cobra.Command, _ []string) error {
	keys, err := secretStoreFactory().List(secrets.DefaultService)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(keys) == 0 {
		_, _ = fmt.Fprintln(out, "No keys stored.")
		return nil
	}
	for _, k := range keys {
		_, _ = fmt.Fprintf(out, "%-24s %s\n", k, dimStyle.Render(secrets.URI(secrets.DefaultService, k)))
	}
	return nil
}

func runKeysDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	if err := secretStoreFactory().Delete(secrets.DefaultService, name); err != nil {
		if rwerr.HasCode(err, rwerr.CodeSecretNotFound) {
			return rwerr.Errorf(rwerr.CodeSecretNotFound, "key %q not found", name)
		}
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted key: %s\n", name)
	return nil
}

func runKeysPool(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printPool(out, "interactive", cfg.Transit.PoolKeys())
	printPool(out, "autofetch", cfg.Transit.RefreshKeys())
	return nil
}

func printPool(w io.Writer, name string, keys []string) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(name))
	if len(keys) == 0 {
		_, _ = fmt.Fprintf(w, "  %s\n", dimStyle.Render("no keys; requests go out anonymously"))
		return
	}
	for i, k := range keys {
		_, _ = fmt.Fprintf(w, "  %d. %s\n", i+1, keypool.Mask(k))
	}
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", rwerr.Errorf(rwerr.CodeCLIInputInvalid, "reading key from stdin: %w", err)
	}
	return strings.TrimSpace(line), nil
}
