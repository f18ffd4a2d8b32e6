package llm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/pkg/errors"
)

func TestParseKind(t *testing.T) {
	for _, in := range []string{"openai", "Gemini", " ollama ", "anthropic"} {
		_, err := ParseKind(in)
		assert.NoError(t, err, in)
	}

	for _, in := range []string{"", "azure", "ollama2"} {
		_, err := ParseKind(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidProvider))
		assert.Equal(t, "invalid provider", err.Error())
	}
}

func TestNew(t *testing.T) {
	opts := DefaultOptions()
	log := logger.NewNop()

	for _, kind := range Kinds {
		p, err := New(kind, "key", "", opts, log)
		require.NoError(t, err, kind)
		assert.Equal(t, kind, p.Kind())
	}

	_, err := New(Kind("bogus"), "key", "", opts, log)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidProvider))

	_, err = New(KindOpenAI, "", "", opts, log)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidReq))

	p, err := New(KindOllama, "", "", opts, log)
	require.NoError(t, err)
	assert.Equal(t, DefaultOllamaURL, p.(*ollamaProvider).endpoint)
}

func TestNew_UnknownProviderNeverListsModels(t *testing.T) {
	p, err := New(Kind("mystery"), "key", "", DefaultOptions(), logger.NewNop())
	assert.Nil(t, p)
	require.Error(t, err)
	assert.EqualError(t, err, "invalid provider")
}

func TestRequestValidate(t *testing.T) {
	valid := func() *Request {
		return &Request{
			Kind:        KindOpenAI,
			Model:       "gpt-4o",
			APIKey:      "sk-test",
			Topic:       "Solar",
			SlideCount:  7,
			Temperature: 0.7,
		}
	}

	require.NoError(t, valid().Validate())

	ollama := valid()
	ollama.Kind = KindOllama
	ollama.APIKey = ""
	require.NoError(t, ollama.Validate())
	assert.Equal(t, DefaultOllamaURL, ollama.Endpoint)

	cases := map[string]func(r *Request){
		"missing key":      func(r *Request) { r.APIKey = "" },
		"missing model":    func(r *Request) { r.Model = " " },
		"missing topic":    func(r *Request) { r.Topic = "" },
		"zero slides":      func(r *Request) { r.SlideCount = 0 },
		"temperature high": func(r *Request) { r.Temperature = 1.5 },
		"temperature low":  func(r *Request) { r.Temperature = -0.1 },
		"temperature NaN":  func(r *Request) { r.Temperature = math.NaN() },
	}
	for name, mutate := range cases {
		r := valid()
		mutate(r)
		err := r.Validate()
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidReq), name)
	}

	bad := valid()
	bad.Kind = "other"
	assert.True(t, errors.Is(bad.Validate(), errors.ErrCodeInvalidProvider))
}

func TestParseStyleAndDetail(t *testing.T) {
	s, err := ParseStyle("Bullet Points")
	require.NoError(t, err)
	assert.Equal(t, StyleBullets, s)

	s, err = ParseStyle("Paragraph")
	require.NoError(t, err)
	assert.Equal(t, StyleParagraph, s)

	s, err = ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, StyleBullets, s)

	_, err = ParseStyle("haiku")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidReq))

	d, err := ParseDetail("Detailed")
	require.NoError(t, err)
	assert.Equal(t, DetailDetailed, d)

	d, err = ParseDetail("brief")
	require.NoError(t, err)
	assert.Equal(t, DetailBrief, d)

	_, err = ParseDetail("verbose")
	assert.Error(t, err)
}

func TestBuildPrompts(t *testing.T) {
	req := &Request{Topic: "Intro to Solar Power", SlideCount: 3, Style: StyleBullets, Detail: DetailBrief}
	system, user := BuildPrompts(req)

	assert.Contains(t, system, "Slide 1 should be a title-only slide")
	assert.Contains(t, system, "bullet points format")
	assert.Contains(t, system, "less than 100 words")
	assert.Contains(t, system, "Do not include any markdown formatting")
	assert.Contains(t, system, "1. Title of Slide 1")
	assert.Contains(t, user, "Topic: Intro to Solar Power")
	assert.Contains(t, user, "exactly 3 slides")

	req.Style = StyleParagraph
	req.Detail = DetailDetailed
	system, user = BuildPrompts(req)
	assert.Contains(t, system, "paragraph format")
	assert.Contains(t, user, "paragraph")
	assert.NotContains(t, user, "bullet points")
	assert.Contains(t, system, "more than 200 words")
	assert.NotContains(t, system, "less than 100 words")

	assert.Equal(t, system+"\n"+user, combinedPrompt(req))
}
