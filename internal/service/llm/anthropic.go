package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/CHuiV123/slidegen/internal/infra/httpclient"
	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/pkg/errors"
)

const anthropicMaxTokens = 4096

type anthropicProvider struct {
	client anthropic.Client
	logger *logger.Logger
}

func newAnthropicProvider(apiKey string, opts Options, log *logger.Logger) *anthropicProvider {
	return &anthropicProvider{
		client: anthropic.NewClient(
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithBaseURL(opts.AnthropicBaseURL),
			anthropicoption.WithHTTPClient(httpclient.New(httpclient.Options{Timeout: opts.HTTPTimeout}).HTTPClient()),
			anthropicoption.WithMaxRetries(0),
		),
		logger: log.Named("llm.anthropic"),
	}
}

func (p *anthropicProvider) Kind() Kind { return KindAnthropic }

func (p *anthropicProvider) ListModels(ctx context.Context) ([]string, error) {
	iter := p.client.Models.ListAutoPaging(ctx, anthropic.ModelListParams{})

	var ids []string
	for iter.Next() {
		ids = append(ids, iter.Current().ID)
	}
	if err := iter.Err(); err != nil {
		return nil, classify(err, KindAnthropic, "failed to list anthropic models")
	}
	return ids, nil
}

func (p *anthropicProvider) GenerateOutline(ctx context.Context, req *Request) (string, error) {
	system, user := BuildPrompts(req)

	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: anthropicMaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
		Temperature: anthropic.Float(req.Temperature),
	})
	if err != nil {
		return "", classify(err, KindAnthropic, "anthropic message request failed")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", errors.New(errors.ErrCodeProviderAPI, "empty response from anthropic")
	}

	p.logger.Debug("message received", "model", req.Model, "stop_reason", msg.StopReason)
	return b.String(), nil
}
