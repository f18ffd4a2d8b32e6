package llm

import (
	"context"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/CHuiV123/slidegen/internal/infra/httpclient"
	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/pkg/errors"
)

type openAIProvider struct {
	client openai.Client
	logger *logger.Logger
}

func newOpenAIProvider(apiKey string, opts Options, log *logger.Logger) *openAIProvider {
	return &openAIProvider{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(opts.OpenAIBaseURL),
			option.WithHTTPClient(httpclient.New(httpclient.Options{Timeout: opts.HTTPTimeout}).HTTPClient()),
			option.WithMaxRetries(0),
		),
		logger: log.Named("llm.openai"),
	}
}

func (p *openAIProvider) Kind() Kind { return KindOpenAI }

func (p *openAIProvider) ListModels(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, classify(err, KindOpenAI, "failed to list openai models")
	}

	ids := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

func (p *openAIProvider) GenerateOutline(ctx context.Context, req *Request) (string, error) {
	system, user := BuildPrompts(req)

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(req.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(req.Temperature),
	})
	if err != nil {
		return "", classify(err, KindOpenAI, "openai chat completion failed")
	}
	if len(completion.Choices) == 0 {
		return "", errors.New(errors.ErrCodeProviderAPI, "empty response from openai")
	}

	p.logger.Debug("completion received",
		"model", req.Model,
		"finish_reason", completion.Choices[0].FinishReason,
		"total_tokens", completion.Usage.TotalTokens,
	)
	return completion.Choices[0].Message.Content, nil
}
