// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/research-assistant/internal/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Ask the research assistant one question",
	Long: `Ask sends a single message to the completion API. Messages longer than
rag.min_message_length are first grounded with results from the RAG source
panel unless --no-rag is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newChatService(cfg, newRegistry(cfg), logger)
		if svc == nil {
			return fmt.Errorf("no completion API key: set ai.api_key, OPENROUTER_API_KEY, or .secrets/openrouter-api-key")
		}

		mode, _ := cmd.Flags().GetString("mode")
		noRAG, _ := cmd.Flags().GetBool("no-rag")
		enable := !noRAG
		req := chat.Request{
			Message:   strings.Join(args, " "),
			Mode:      chat.Mode(mode),
			EnableRAG: &enable,
		}

		ctx, stop := withSignals(cmd.Context())
		defer stop()

		resp, err := svc.Respond(ctx, req)
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		fmt.Fprintln(w, resp.Response)
		if resp.RAGEnabled {
			fmt.Fprintf(w, "\n[%d verified facts from %s]\n", resp.RAGFactCount, strings.Join(resp.RAGSources, ", "))
		}
		return nil
	},
}

func init() {
	askCmd.Flags().String("mode", string(chat.ModeResearchIdeas),
		"assistant mode: research-ideas, systematic-review, literature-search, manuscript-help")
	askCmd.Flags().Bool("no-rag", false, "skip research context retrieval")
	askCmd.Flags().Bool("json", false, "print the full response as JSON")

	rootCmd.AddCommand(askCmd)
}
