package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().String("provider", "", "backend: openai, gemini, anthropic or ollama (required)")
	modelsCmd.Flags().String("api-key", "", "credential for hosted backends (falls back to <PROVIDER>_API_KEY)")
	modelsCmd.Flags().String("ollama-url", "", "daemon address; the local CLI is used for the default address")
	_ = modelsCmd.MarkFlagRequired("provider")
}

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models a backend offers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		apiKey, _ := cmd.Flags().GetString("api-key")
		ollamaURL, _ := cmd.Flags().GetString("ollama-url")

		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.log.Sync()

		models, err := a.orch.ListModels(cmd.Context(), provider, apiKeyFor(provider, apiKey), ollamaURL)
		if err != nil {
			return err
		}
		for _, m := range models {
			fmt.Fprintln(cmd.OutOrStdout(), m)
		}
		return nil
	},
}
