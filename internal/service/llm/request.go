package llm

import (
	"fmt"
	"strings"

	"github.com/CHuiV123/slidegen/pkg/errors"
)

type Style int

const (
	StyleBullets Style = iota
	StyleParagraph
)

// Label is the wording used inside prompts.
func (s Style) Label() string {
	if s == StyleParagraph {
		return "paragraph"
	}
	return "bullet points"
}

// ParseStyle accepts the form values "Bullet Points" and "Paragraph".
// An empty value selects bullets.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "bullet points", "bullet point", "bullets", "bullet":
		return StyleBullets, nil
	case "paragraph", "paragraphs":
		return StyleParagraph, nil
	default:
		return StyleBullets, errors.New(errors.ErrCodeInvalidReq, fmt.Sprintf("unsupported content format %q", s))
	}
}

type Detail int

const (
	DetailBrief Detail = iota
	DetailDetailed
)

func (d Detail) Label() string {
	if d == DetailDetailed {
		return "detailed"
	}
	return "brief"
}

func ParseDetail(s string) (Detail, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "brief":
		return DetailBrief, nil
	case "detailed", "detail":
		return DetailDetailed, nil
	default:
		return DetailBrief, errors.New(errors.ErrCodeInvalidReq, fmt.Sprintf("unsupported detail level %q", s))
	}
}

// Request is one outline generation call. It is built per call and never
// shared between calls.
type Request struct {
	Kind        Kind
	Model       string
	APIKey      string
	Endpoint    string
	Topic       string
	SlideCount  int
	Style       Style
	Detail      Detail
	Temperature float64
}

// Validate checks the invariants and fills in the default daemon endpoint.
func (r *Request) Validate() error {
	if _, err := ParseKind(string(r.Kind)); err != nil {
		return err
	}
	if r.Kind.NeedsCredential() && strings.TrimSpace(r.APIKey) == "" {
		return errors.New(errors.ErrCodeInvalidReq, fmt.Sprintf("api key is required for provider %s", r.Kind))
	}
	if r.Kind == KindOllama && strings.TrimSpace(r.Endpoint) == "" {
		r.Endpoint = DefaultOllamaURL
	}
	if strings.TrimSpace(r.Model) == "" {
		return errors.New(errors.ErrCodeInvalidReq, "model is required")
	}
	if strings.TrimSpace(r.Topic) == "" {
		return errors.New(errors.ErrCodeInvalidReq, "prompt is required")
	}
	if r.SlideCount < 1 {
		return errors.New(errors.ErrCodeInvalidReq, "num_slides must be positive")
	}
	// NaN fails both comparisons.
	if !(r.Temperature >= 0 && r.Temperature <= 1) {
		return errors.New(errors.ErrCodeInvalidReq, "temperature must be between 0.0 and 1.0")
	}
	return nil
}
