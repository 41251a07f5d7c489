/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Command cvexport renders competence matrix CVs as PDF and DOCX documents.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"competencematrix/internal/crash"
)

var crashCtx crash.Context

var rootCmd = &cobra.Command{
	Use:               "cvexport",
	Short:             "Export competence matrix CVs as PDF and DOCX",
	Long:              "cvexport renders a consultant profile into a fixed-layout PDF or an editable DOCX document, from a JSON file, the local profile store or the managed backend.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: teardown,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()
	defer crash.Recover(&crashCtx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
