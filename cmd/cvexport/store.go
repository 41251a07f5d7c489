/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"competencematrix/internal/backend"
	"competencematrix/internal/config"
	"competencematrix/internal/storage"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Validate a profile JSON file and put it into the profile store",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a stored profile as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored profiles",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var removeCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a stored profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var pullCmd = &cobra.Command{
	Use:   "pull <id>",
	Short: "Fetch a profile from the managed backend into the profile store",
	Args:  cobra.ExactArgs(1),
	RunE:  runPull,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the backend bearer token in the OS keychain",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the backend bearer token from the OS keychain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.DeleteToken(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
		return nil
	},
}

var (
	importID   string
	pullAs     string
	loginToken string
)

func init() {
	importCmd.Flags().StringVar(&importID, "id", "", "Document id (default: file name without extension)")
	pullCmd.Flags().StringVar(&pullAs, "as", "", "Store under this id instead of the backend id")
	loginCmd.Flags().StringVar(&loginToken, "token", "", "Backend bearer token (required)")
	if err := loginCmd.MarkFlagRequired("token"); err != nil {
		panic(fmt.Sprintf("failed to mark token flag as required: %v", err))
	}
	rootCmd.AddCommand(importCmd, showCmd, listCmd, removeCmd, pullCmd, loginCmd, logoutCmd)
}

// documentID derives a store id from a file path: "cv/anna.json" -> "anna".
func documentID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, err := storage.LoadProfileFile(args[0])
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}
	id := firstNonEmpty(importID, documentID(args[0]))
	st, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	doc, err := st.Put(ctx, id, p)
	if err != nil {
		return err
	}
	env.log.Info("profile imported", slog.String("id", id), slog.Int64("version", doc.Version))
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as %s (version %d)\n", args[0], id, doc.Version)
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	doc, err := st.Get(ctx, args[0])
	if err != nil {
		return err
	}
	b, err := storage.EncodeProfile(doc.Profile)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	st, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	list, err := st.List(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tVERSION\tUPDATED")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", s.ID, s.DisplayName, s.Version, s.UpdatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func runRemove(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	st, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.Delete(ctx, args[0])
}

func runPull(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if strings.TrimSpace(env.cfg.Backend.BaseURL) == "" {
		return fmt.Errorf("backend url not configured (set backend.base_url or %s)", config.EnvBackendURL)
	}
	if env.token == "" {
		return errors.New("not logged in: run cvexport login --token <token>")
	}
	client := backend.NewClient(env.cfg.Backend.BaseURL, env.token, env.cfg.Backend.Timeout())
	p, err := client.GetProfile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("pull %s: %w", args[0], err)
	}
	st, err := env.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()
	id := firstNonEmpty(pullAs, args[0])
	doc, err := st.Put(ctx, id, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Pulled %s into %s (version %d)\n", args[0], id, doc.Version)
	return nil
}

func runLogin(cmd *cobra.Command, _ []string) error {
	if err := config.SaveToken(strings.TrimSpace(loginToken)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Token stored in the OS keychain.")
	return nil
}
