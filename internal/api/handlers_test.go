package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CHuiV123/slidegen/internal/infra/limiter"
	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/internal/service/background"
	"github.com/CHuiV123/slidegen/internal/service/deck"
	"github.com/CHuiV123/slidegen/internal/service/llm"
	"github.com/CHuiV123/slidegen/internal/service/orchestrator"
	"github.com/CHuiV123/slidegen/internal/service/storage"
)

type recordingProvider struct {
	kind    llm.Kind
	outline string
	last    *llm.Request
}

func (p *recordingProvider) Kind() llm.Kind { return p.kind }

func (p *recordingProvider) ListModels(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (p *recordingProvider) GenerateOutline(ctx context.Context, req *llm.Request) (string, error) {
	p.last = req
	return p.outline, nil
}

type testServer struct {
	router    *gin.Engine
	outputDir string
}

func newTestServer(t *testing.T, factory orchestrator.ProviderFactory) *testServer {
	t.Helper()
	log := logger.NewNop()
	outputDir := t.TempDir()

	orch := orchestrator.New(
		llm.DefaultOptions(),
		background.New(t.TempDir(), log),
		deck.NewPPTXRenderer(log),
		storage.New(outputDir, log),
		limiter.New(4, 0),
		log,
	)
	if factory != nil {
		orch = orch.WithProviderFactory(factory)
	}

	return &testServer{
		router:    NewRouter(orch, log, RouterOptions{AllowOrigins: []string{"*"}}),
		outputDir: outputDir,
	}
}

func (s *testServer) postForm(t *testing.T, path string, form url.Values) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

// fakeOllama serves the daemon's tag listing and streaming generation paths.
func fakeOllama(t *testing.T, outline string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models":[{"name":"llama3:latest"},{"name":"mistral:7b"}]}`)
		case "/api/generate":
			w.Header().Set("Content-Type", "application/x-ndjson")
			for _, line := range strings.SplitAfter(outline, "\n") {
				chunk, _ := json.Marshal(map[string]string{"response": line})
				fmt.Fprintln(w, string(chunk))
			}
			fmt.Fprintln(w, `{"done":true}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListModels_UnknownProvider(t *testing.T) {
	s := newTestServer(t, nil)

	w, body := s.postForm(t, "/list_models", url.Values{"provider": {"watson"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "invalid provider", body["error"])
	assert.NotContains(t, body, "models")

	_, body = s.postForm(t, "/list_models", url.Values{})
	assert.Equal(t, "invalid provider", body["error"])
}

func TestListModels_HostedWithoutKey(t *testing.T) {
	s := newTestServer(t, nil)

	_, body := s.postForm(t, "/list_models", url.Values{"provider": {"openai"}})
	assert.Equal(t, "api key is required for provider openai", body["error"])
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestListModels_RemoteOllama(t *testing.T) {
	daemon := fakeOllama(t, "")
	s := newTestServer(t, nil)

	w, body := s.postForm(t, "/list_models", url.Values{
		"provider":   {"ollama"},
		"ollama_url": {daemon.URL},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []interface{}{"llama3:latest", "mistral:7b"}, body["models"])
}

func TestGenerateSlides_OllamaEndToEnd(t *testing.T) {
	daemon := fakeOllama(t, "1. Solar Power\n2. How It Works\n- Converts sunlight\n- Uses panels\n3. Benefits\n- Clean energy\n- Low cost")
	s := newTestServer(t, nil)

	w, body := s.postForm(t, "/generate_slides", url.Values{
		"provider":   {"ollama"},
		"model":      {"llama3"},
		"prompt":     {"Intro to Solar Power"},
		"num_slides": {"3"},
		"ollama_url": {daemon.URL},
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, body, "error")

	msg, _ := body["message"].(string)
	require.True(t, strings.HasPrefix(msg, "Presentation created in Downloads folder: "), msg)
	path := strings.TrimPrefix(msg, "Presentation created in Downloads folder: ")
	assert.True(t, strings.HasPrefix(path, s.outputDir))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}

func TestGenerateSlides_FormDefaults(t *testing.T) {
	p := &recordingProvider{outline: "1. Cover\n2. Body\n- point"}
	s := newTestServer(t, func(kind llm.Kind, apiKey, endpoint string) (llm.Provider, error) {
		p.kind = kind
		return p, nil
	})

	_, body := s.postForm(t, "/generate_slides", url.Values{
		"provider": {"openai"},
		"model":    {"gpt-4o-mini"},
		"api_key":  {"sk-test"},
		"prompt":   {"Intro to Solar Power"},
	})
	require.NotContains(t, body, "error")
	require.NotNil(t, p.last)

	assert.Equal(t, 7, p.last.SlideCount)
	assert.InDelta(t, 0.7, p.last.Temperature, 1e-9)
	assert.Equal(t, llm.StyleBullets, p.last.Style)
	assert.Equal(t, llm.DetailBrief, p.last.Detail)
	assert.Equal(t, "sk-test", p.last.APIKey)
}

func TestGenerateSlides_ParagraphDetailed(t *testing.T) {
	p := &recordingProvider{outline: "1. Cover"}
	s := newTestServer(t, func(kind llm.Kind, apiKey, endpoint string) (llm.Provider, error) {
		p.kind = kind
		return p, nil
	})

	_, body := s.postForm(t, "/generate_slides", url.Values{
		"provider":       {"gemini"},
		"model":          {"gemini-1.5-flash"},
		"api_key":        {"key"},
		"prompt":         {"Tides"},
		"content_format": {"Paragraph"},
		"detail_level":   {"Detailed"},
		"temperature":    {"0.3"},
	})
	require.NotContains(t, body, "error")
	assert.Equal(t, llm.StyleParagraph, p.last.Style)
	assert.Equal(t, llm.DetailDetailed, p.last.Detail)
	assert.InDelta(t, 0.3, p.last.Temperature, 1e-9)
}

func TestGenerateSlides_Errors(t *testing.T) {
	p := &recordingProvider{outline: "no numbered lines here"}
	s := newTestServer(t, func(kind llm.Kind, apiKey, endpoint string) (llm.Provider, error) {
		p.kind = kind
		return p, nil
	})
	base := url.Values{
		"provider": {"openai"},
		"model":    {"gpt-4o-mini"},
		"api_key":  {"sk-test"},
		"prompt":   {"Intro to Solar Power"},
	}
	with := func(key, value string) url.Values {
		v := url.Values{}
		for k, vs := range base {
			v[k] = vs
		}
		v.Set(key, value)
		return v
	}

	cases := []struct {
		name string
		form url.Values
		code string
	}{
		{"unknown provider", with("provider", "watson"), "INVALID_PROVIDER"},
		{"bad content format", with("content_format", "Haiku"), "INVALID_REQUEST"},
		{"non numeric slides", with("num_slides", "many"), "INVALID_REQUEST"},
		{"temperature out of range", with("temperature", "1.5"), "INVALID_REQUEST"},
		{"missing prompt", with("prompt", ""), "INVALID_REQUEST"},
		{"empty outline", base, "EMPTY_OUTLINE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := s.postForm(t, "/generate_slides", tc.form)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.code, body["code"])
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body, "message")
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestPanicIsReportedAsError(t *testing.T) {
	s := newTestServer(t, nil)
	s.router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"error":"internal error: boom","code":"INTERNAL_ERROR"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, nil)
	s.router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "slidegen_http_requests_total")
}
