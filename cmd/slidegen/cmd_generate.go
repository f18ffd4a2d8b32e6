package main

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/CHuiV123/slidegen/internal/service/llm"
	"github.com/CHuiV123/slidegen/internal/service/orchestrator"
)

func init() {
	rootCmd.AddCommand(generateCmd)
	f := generateCmd.Flags()
	f.String("provider", "", "backend: openai, gemini, anthropic or ollama (required)")
	f.String("model", "", "model id (required)")
	f.String("prompt", "", "topic of the deck (required)")
	f.String("api-key", "", "credential for hosted backends (falls back to <PROVIDER>_API_KEY)")
	f.String("ollama-url", "", "daemon address")
	f.Int("slides", 7, "number of slides")
	f.String("format", "Bullet Points", `content format: "Bullet Points" or "Paragraph"`)
	f.String("detail", "Brief", `detail level: "Brief" or "Detailed"`)
	f.Float64("temperature", 0.7, "sampling temperature between 0.0 and 1.0")
	f.String("bg-image", "", "path to a PNG or JPEG background image")
	f.Int("opacity", 100, "background opacity percent")
	f.BoolP("quiet", "q", false, "do not print progress")
	_ = generateCmd.MarkFlagRequired("provider")
	_ = generateCmd.MarkFlagRequired("model")
	_ = generateCmd.MarkFlagRequired("prompt")
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a deck and save it to the output directory",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	provider, _ := f.GetString("provider")
	model, _ := f.GetString("model")
	prompt, _ := f.GetString("prompt")
	apiKey, _ := f.GetString("api-key")
	ollamaURL, _ := f.GetString("ollama-url")
	slides, _ := f.GetInt("slides")
	format, _ := f.GetString("format")
	detail, _ := f.GetString("detail")
	temperature, _ := f.GetFloat64("temperature")
	bgPath, _ := f.GetString("bg-image")
	opacity, _ := f.GetInt("opacity")
	quiet, _ := f.GetBool("quiet")

	kind, err := llm.ParseKind(provider)
	if err != nil {
		return err
	}
	style, err := llm.ParseStyle(format)
	if err != nil {
		return err
	}
	level, err := llm.ParseDetail(detail)
	if err != nil {
		return err
	}

	var bg string
	if bgPath != "" {
		data, err := os.ReadFile(bgPath)
		if err != nil {
			return fmt.Errorf("read background image: %w", err)
		}
		bg = base64.StdEncoding.EncodeToString(data)
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	req := &orchestrator.DeckRequest{
		RequestID: uuid.New().String(),
		Generation: llm.Request{
			Kind:        kind,
			Model:       model,
			APIKey:      apiKeyFor(provider, apiKey),
			Endpoint:    ollamaURL,
			Topic:       prompt,
			SlideCount:  slides,
			Style:       style,
			Detail:      level,
			Temperature: temperature,
		},
		BackgroundBase64: bg,
		Opacity:          opacity,
	}

	var onProgress orchestrator.ProgressCallback
	if !quiet {
		onProgress = func(ev orchestrator.ProgressEvent) {
			if ev.Stage == orchestrator.StageComplete {
				return
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "[%3d%%] %s\n", ev.Progress, ev.Message)
		}
	}

	result, err := a.orch.GenerateDeckWithProgress(cmd.Context(), req, onProgress)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	return nil
}
