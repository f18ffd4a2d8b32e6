package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/CHuiV123/slidegen/internal/infra/httpclient"
	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/pkg/errors"
)

const geminiKeyHeader = "x-goog-api-key"

type geminiProvider struct {
	baseURL    string
	httpClient *httpclient.Client
	logger     *logger.Logger
}

func newGeminiProvider(apiKey string, opts Options, log *logger.Logger) *geminiProvider {
	header := http.Header{}
	header.Set(geminiKeyHeader, apiKey)

	return &geminiProvider{
		baseURL: strings.TrimRight(opts.GeminiBaseURL, "/"),
		httpClient: httpclient.New(httpclient.Options{
			Timeout: opts.HTTPTimeout,
			Header:  header,
		}),
		logger:     log.Named("llm.gemini"),
	}
}

func (p *geminiProvider) Kind() Kind { return KindGemini }

// ListModels walks every page and returns the canonical "models/..." names.
func (p *geminiProvider) ListModels(ctx context.Context) ([]string, error) {
	var names []string
	pageToken := ""

	for {
		q := url.Values{}
		q.Set("pageSize", "1000")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}

		var page struct {
			Models []struct {
				Name string `json:"name"`
			} `json:"models"`
			NextPageToken string `json:"nextPageToken"`
		}
		if err := p.getJSON(ctx, p.baseURL+"/v1beta/models?"+q.Encode(), &page); err != nil {
			return nil, classify(err, KindGemini, "failed to list gemini models")
		}

		for _, m := range page.Models {
			names = append(names, m.Name)
		}
		if page.NextPageToken == "" {
			return names, nil
		}
		pageToken = page.NextPageToken
	}
}

func (p *geminiProvider) GenerateOutline(ctx context.Context, req *Request) (string, error) {
	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": combinedPrompt(req)},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": req.Temperature,
		},
	}

	bodyBytes, err := json.Marshal(requestBody)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal request")
	}

	endpoint := fmt.Sprintf("%s/v1beta/%s:generateContent", p.baseURL, modelPath(req.Model))

	resp, err := p.httpClient.PostJSON(ctx, endpoint, bodyBytes)
	if err != nil {
		return "", classify(err, KindGemini, "gemini API request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(err, KindGemini, "failed to read gemini response")
	}

	return p.parseResponse(respBody)
}

func (p *geminiProvider) parseResponse(body []byte) (string, error) {
	var response struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
			FinishReason string `json:"finishReason"`
		} `json:"candidates"`
		PromptFeedback struct {
			BlockReason string `json:"blockReason"`
		} `json:"promptFeedback"`
	}

	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeProviderAPI, "failed to parse gemini response")
	}

	if response.PromptFeedback.BlockReason != "" {
		return "", errors.New(errors.ErrCodeProviderAPI, "gemini blocked the prompt: "+response.PromptFeedback.BlockReason)
	}
	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", errors.New(errors.ErrCodeProviderAPI, "empty response from gemini")
	}

	var b strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		b.WriteString(part.Text)
	}
	p.logger.Debug("content generated", "finish_reason", response.Candidates[0].FinishReason, "chars", b.Len())
	return b.String(), nil
}

func (p *geminiProvider) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	resp, err := p.httpClient.Get(ctx, endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// modelPath accepts both "gemini-pro" and the listed "models/gemini-pro" form.
func modelPath(model string) string {
	if strings.HasPrefix(model, "models/") || strings.HasPrefix(model, "tunedModels/") {
		return model
	}
	return "models/" + model
}
