package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/internal/service/llm"
	"github.com/CHuiV123/slidegen/internal/service/orchestrator"
	"github.com/CHuiV123/slidegen/pkg/errors"
)

type Handler struct {
	orchestrator *orchestrator.Orchestrator
	logger       *logger.Logger
}

func NewHandler(orch *orchestrator.Orchestrator, log *logger.Logger) *Handler {
	return &Handler{
		orchestrator: orch,
		logger:       log,
	}
}

func (h *Handler) ListModels(c *gin.Context) {
	var form ListModelsForm
	if err := c.ShouldBind(&form); err != nil {
		h.handleError(c, errors.Wrap(err, errors.ErrCodeInvalidReq, "invalid form"))
		return
	}

	models, err := h.orchestrator.ListModels(c.Request.Context(), form.Provider, form.APIKey, form.OllamaURL)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if models == nil {
		models = []string{}
	}

	c.JSON(http.StatusOK, ModelsResponse{Models: models})
}

func (h *Handler) GenerateSlides(c *gin.Context) {
	var form GenerateSlidesForm
	if err := c.ShouldBind(&form); err != nil {
		h.handleError(c, errors.Wrap(err, errors.ErrCodeInvalidReq, "invalid form"))
		return
	}

	req, err := form.toDeckRequest(c.GetString(requestIDKey))
	if err != nil {
		h.handleError(c, err)
		return
	}

	result, err := h.orchestrator.GenerateDeck(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: result.Message})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleError keeps the uniform contract: every domain failure is a 200 with
// an error field.
func (h *Handler) handleError(c *gin.Context, err error) {
	code := errors.CodeOf(err)
	h.logger.Error("request failed",
		"request_id", c.GetString(requestIDKey),
		"path", c.FullPath(),
		"code", code,
		"error", err,
	)
	c.JSON(http.StatusOK, ErrorResponse{Error: err.Error(), Code: code})
}

func (f *GenerateSlidesForm) toDeckRequest(requestID string) (*orchestrator.DeckRequest, error) {
	kind, err := llm.ParseKind(f.Provider)
	if err != nil {
		return nil, err
	}
	style, err := llm.ParseStyle(f.ContentFormat)
	if err != nil {
		return nil, err
	}
	detail, err := llm.ParseDetail(f.DetailLevel)
	if err != nil {
		return nil, err
	}

	return &orchestrator.DeckRequest{
		RequestID: requestID,
		Generation: llm.Request{
			Kind:        kind,
			Model:       f.Model,
			APIKey:      f.APIKey,
			Endpoint:    f.OllamaURL,
			Topic:       f.Prompt,
			SlideCount:  f.NumSlides,
			Style:       style,
			Detail:      detail,
			Temperature: f.Temperature,
		},
		BackgroundBase64: f.BgImageBase64,
		Opacity:          f.Opacity,
	}, nil
}
