package llm

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go/v3"

	"github.com/CHuiV123/slidegen/internal/infra/httpclient"
	"github.com/CHuiV123/slidegen/pkg/errors"
)

// classify maps a backend failure onto the error taxonomy. msg prefixes the
// message shown to callers.
func classify(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return err
	}

	if status := statusOf(err); status != 0 {
		switch status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return errors.Wrap(err, errors.ErrCodeProviderAuth, fmt.Sprintf("%s: %s rejected the credential or quota", msg, kind))
		default:
			return errors.Wrap(err, errors.ErrCodeProviderAPI, msg)
		}
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) || stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Wrap(err, errors.ErrCodeNetwork, msg)
	}
	return errors.Wrap(err, errors.ErrCodeProviderAPI, msg)
}

func statusOf(err error) int {
	var statusErr *httpclient.StatusError
	if stderrors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var openaiErr *openai.Error
	if stderrors.As(err, &openaiErr) {
		return openaiErr.StatusCode
	}
	var anthropicErr *anthropic.Error
	if stderrors.As(err, &anthropicErr) {
		return anthropicErr.StatusCode
	}
	return 0
}
