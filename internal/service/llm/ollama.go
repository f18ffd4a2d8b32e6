package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/CHuiV123/slidegen/internal/infra/httpclient"
	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/pkg/errors"
	"github.com/CHuiV123/slidegen/pkg/metrics"
)

// DefaultOllamaURL is the address a locally installed daemon listens on.
const DefaultOllamaURL = "http://localhost:11434"

const maxStreamLine = 1 << 20

type ollamaProvider struct {
	endpoint   string
	isLocal    bool
	opts       OllamaOptions
	tagsClient *httpclient.Client
	genClient  *httpclient.Client
	logger     *logger.Logger
}

func newOllamaProvider(endpoint string, opts OllamaOptions, log *logger.Logger) *ollamaProvider {
	if opts.DefaultURL == "" {
		opts.DefaultURL = DefaultOllamaURL
	}
	if opts.Binary == "" {
		opts.Binary = "ollama"
	}
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		endpoint = strings.TrimRight(opts.DefaultURL, "/")
	}

	return &ollamaProvider{
		endpoint:   endpoint,
		isLocal:    endpoint == strings.TrimRight(opts.DefaultURL, "/"),
		opts:       opts,
		tagsClient: httpclient.New(httpclient.Options{Timeout: opts.TagsTimeout}),
		genClient: httpclient.New(httpclient.Options{
			IdleTimeout: opts.GenerateTimeout,
			MaxAttempts: opts.MaxAttempts,
			RetryDelay:  opts.RetryDelay,
		}),
		logger: log.Named("llm.ollama").With("endpoint", endpoint),
	}
}

func (p *ollamaProvider) Kind() Kind { return KindOllama }

// ListModels asks the local CLI when the endpoint is the default address and
// the daemon's tag listing otherwise.
func (p *ollamaProvider) ListModels(ctx context.Context) ([]string, error) {
	if p.isLocal {
		return p.listLocal(ctx)
	}
	return p.listRemote(ctx)
}

func (p *ollamaProvider) listLocal(ctx context.Context) ([]string, error) {
	if p.opts.ListTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ListTimeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.opts.Binary, "list")
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, errors.Wrap(err, errors.ErrCodeLocalTool, "failed to list local Ollama models")
	}
	return parseListOutput(string(out)), nil
}

// parseListOutput reads the table printed by `ollama list`: a header line
// followed by one model per line, name first.
func parseListOutput(out string) []string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) <= 1 {
		return []string{}
	}

	names := make([]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[0])
	}
	return names
}

func (p *ollamaProvider) listRemote(ctx context.Context) ([]string, error) {
	resp, err := p.tagsClient.Get(ctx, p.endpoint+"/api/tags")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "failed to list remote Ollama models")
	}
	defer resp.Body.Close()

	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeNetwork, "failed to list remote Ollama models")
	}

	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// GenerateOutline streams /api/generate, retrying the whole exchange on
// failure with a fixed pause.
func (p *ollamaProvider) GenerateOutline(ctx context.Context, req *Request) (string, error) {
	payload := map[string]interface{}{
		"model":  req.Model,
		"prompt": combinedPrompt(req),
		"stream": true,
		"options": map[string]interface{}{
			"temperature": req.Temperature,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "failed to marshal request")
	}

	var text string
	err = p.genClient.Retry(ctx, func(ctx context.Context) error {
		var attemptErr error
		text, attemptErr = p.generateOnce(ctx, body)
		return attemptErr
	}, func(attempt int, err error) {
		metrics.LLMRetriesTotal.WithLabelValues(string(KindOllama)).Inc()
		p.logger.Warn("ollama generate attempt failed, retrying",
			"attempt", attempt,
			"model", req.Model,
			"error", err,
		)
	})
	if err != nil {
		var retryErr *httpclient.RetryError
		if stderrors.As(err, &retryErr) {
			return "", errors.Wrap(retryErr.Last, errors.ErrCodeNetwork,
				fmt.Sprintf("failed to connect to Ollama after %d attempts", retryErr.Attempts))
		}
		return "", errors.Wrap(err, errors.ErrCodeNetwork, "failed to connect to Ollama")
	}
	return text, nil
}

func (p *ollamaProvider) generateOnce(ctx context.Context, body []byte) (string, error) {
	resp, err := p.genClient.PostJSON(ctx, p.endpoint+"/api/generate", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	stream := newChunkStream(resp.Body)
	var b strings.Builder
	for stream.Next() {
		b.WriteString(stream.Chunk())
	}
	if err := stream.Err(); err != nil {
		return "", err
	}
	if stream.skipped > 0 {
		p.logger.Debug("skipped malformed stream lines", "count", stream.skipped)
	}
	return strings.TrimSpace(b.String()), nil
}

// chunkStream yields the "response" fragment of each NDJSON line once, in
// arrival order. Lines that are not valid JSON are skipped.
type chunkStream struct {
	scanner *bufio.Scanner
	chunk   string
	skipped int
	err     error
}

func newChunkStream(r io.Reader) *chunkStream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	return &chunkStream{scanner: scanner}
}

func (s *chunkStream) Next() bool {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var fragment struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal(line, &fragment); err != nil {
			s.skipped++
			continue
		}
		s.chunk = fragment.Response
		return true
	}
	s.err = s.scanner.Err()
	return false
}

func (s *chunkStream) Chunk() string { return s.chunk }

func (s *chunkStream) Err() error { return s.err }
