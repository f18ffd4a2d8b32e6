package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/CHuiV123/slidegen/internal/infra/limiter"
	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/internal/service/background"
	"github.com/CHuiV123/slidegen/internal/service/deck"
	"github.com/CHuiV123/slidegen/internal/service/llm"
	"github.com/CHuiV123/slidegen/internal/service/outline"
	"github.com/CHuiV123/slidegen/internal/service/storage"
	"github.com/CHuiV123/slidegen/pkg/errors"
	"github.com/CHuiV123/slidegen/pkg/metrics"
)

const savedMessage = "Presentation created in Downloads folder: %s"

type DeckRequest struct {
	RequestID  string
	Generation llm.Request
	// BackgroundBase64 is optional; a data URL prefix is accepted.
	BackgroundBase64 string
	Opacity          int
}

type DeckResult struct {
	RequestID string
	Path      string
	Message   string
	Titles    []string
}

// Stage names reported through ProgressCallback, in pipeline order.
const (
	StageQueued     = "queued"
	StageGenerating = "generating"
	StageParsed     = "parsed"
	StageBackground = "background"
	StageRendering  = "rendering"
	StageSaving     = "saving"
	StageComplete   = "complete"
)

type ProgressEvent struct {
	Stage    string
	Message  string
	Progress int
	Data     interface{}
}

type ProgressCallback func(event ProgressEvent)

// ProviderFactory builds a backend adapter for one call.
type ProviderFactory func(kind llm.Kind, apiKey, endpoint string) (llm.Provider, error)

type Orchestrator struct {
	providers   ProviderFactory
	backgrounds *background.Service
	renderer    deck.Renderer
	storage     *storage.Service
	limiter     *limiter.Limiter
	logger      *logger.Logger
}

func New(
	opts llm.Options,
	backgrounds *background.Service,
	renderer deck.Renderer,
	store *storage.Service,
	lim *limiter.Limiter,
	log *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		providers: func(kind llm.Kind, apiKey, endpoint string) (llm.Provider, error) {
			return llm.New(kind, apiKey, endpoint, opts, log)
		},
		backgrounds: backgrounds,
		renderer:    renderer,
		storage:     store,
		limiter:     lim,
		logger:      log.Named("orchestrator"),
	}
}

// WithProviderFactory replaces how adapters are built. Used by tests and
// embedders that supply their own backends.
func (o *Orchestrator) WithProviderFactory(f ProviderFactory) *Orchestrator {
	o.providers = f
	return o
}

// ListModels enumerates the models of one backend. Unknown provider tags
// are an error, never an empty list.
func (o *Orchestrator) ListModels(ctx context.Context, provider, apiKey, endpoint string) ([]string, error) {
	kind, err := llm.ParseKind(provider)
	if err != nil {
		return nil, err
	}
	p, err := o.providers(kind, apiKey, endpoint)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	models, err := p.ListModels(ctx)
	observeCall(kind, "list_models", start, err)
	if err != nil {
		o.logger.Error("failed to list models", "provider", kind, "error", err)
		return nil, err
	}

	o.logger.Info("models listed", "provider", kind, "count", len(models))
	return models, nil
}

func (o *Orchestrator) GenerateDeck(ctx context.Context, req *DeckRequest) (*DeckResult, error) {
	return o.GenerateDeckWithProgress(ctx, req, nil)
}

// GenerateDeckWithProgress runs generate, parse, background, render and save.
// The transient background file is removed on every path.
func (o *Orchestrator) GenerateDeckWithProgress(ctx context.Context, req *DeckRequest, onProgress ProgressCallback) (result *DeckResult, err error) {
	gen := &req.Generation
	if err := gen.Validate(); err != nil {
		return nil, err
	}
	if req.Opacity < 0 || req.Opacity > 100 {
		return nil, errors.New(errors.ErrCodeInvalidReq, "opacity must be between 0 and 100")
	}

	log := o.logger.With("request_id", req.RequestID, "provider", gen.Kind, "model", gen.Model)

	defer func() {
		status := "success"
		if err != nil {
			status = errors.CodeOf(err)
		}
		metrics.DeckGenerationTotal.WithLabelValues(string(gen.Kind), status).Inc()
	}()

	emit := func(stage, message string, progress int, data interface{}) {
		if onProgress != nil {
			onProgress(ProgressEvent{
				Stage:    stage,
				Message:  message,
				Progress: progress,
				Data:     data,
			})
		}
	}

	emit(StageQueued, "waiting for a generation slot", 0, nil)
	release, err := o.limiter.Acquire(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRateLimited, "rate limit exceeded")
	}
	defer release()

	p, err := o.providers(gen.Kind, gen.APIKey, gen.Endpoint)
	if err != nil {
		return nil, err
	}

	log.Info("starting deck generation",
		"slides", gen.SlideCount,
		"style", gen.Style.Label(),
		"detail", gen.Detail.Label(),
		"has_background", req.BackgroundBase64 != "",
	)

	// Step 1: draft the outline
	emit(StageGenerating, "generating outline", 10, nil)
	start := time.Now()
	raw, err := p.GenerateOutline(ctx, gen)
	observeCall(gen.Kind, "generate_outline", start, err)
	if err != nil {
		log.Error("failed to generate outline", "error", err)
		return nil, err
	}

	// Step 2: structure it
	slides := outline.Parse(raw)
	if slides.Len() == 0 {
		log.Warn("outline has no numbered slides", "raw_length", len(raw))
		return nil, errors.New(errors.ErrCodeEmptyOutline, "no slides could be parsed from the generated outline")
	}
	metrics.DeckSlideCount.Observe(float64(slides.Len()))
	if slides.Len() != gen.SlideCount {
		log.Warn("slide count differs from request", "requested", gen.SlideCount, "parsed", slides.Len())
	}
	emit(StageParsed, "outline parsed", 50, slides.Titles())

	// Step 3: optional background
	var bg *background.Image
	if req.BackgroundBase64 != "" {
		emit(StageBackground, "preparing background image", 60, nil)
		bg, err = o.backgrounds.Prepare(req.BackgroundBase64, req.Opacity)
		if err != nil {
			log.Error("failed to prepare background", "error", err)
			return nil, err
		}
		defer func() {
			if cerr := bg.Cleanup(); cerr != nil {
				log.Warn("failed to remove transient background", "path", bg.Path, "error", cerr)
			}
		}()
	}

	// Step 4: render
	emit(StageRendering, "rendering deck", 70, nil)
	data, err := o.renderer.Render(slides, bg)
	if err != nil {
		log.Error("failed to render deck", "error", err)
		return nil, err
	}

	// Step 5: save
	emit(StageSaving, "saving deck", 90, nil)
	path, err := o.storage.Save(ctx, data, o.renderer.Extension())
	if err != nil {
		log.Error("failed to save deck", "error", err)
		return nil, err
	}

	result = &DeckResult{
		RequestID: req.RequestID,
		Path:      path,
		Message:   fmt.Sprintf(savedMessage, path),
		Titles:    slides.Titles(),
	}
	emit(StageComplete, result.Message, 100, map[string]string{"path": path})

	log.Info("deck generated", "path", path, "slides", slides.Len(), "size_bytes", len(data))
	return result, nil
}

func observeCall(kind llm.Kind, op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = errors.CodeOf(err)
	}
	metrics.LLMCallTotal.WithLabelValues(string(kind), op, status).Inc()
	metrics.LLMCallDuration.WithLabelValues(string(kind), op).Observe(time.Since(start).Seconds())
}
