package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"chatgw/chatgw/services/llm"
	httputils "chatgw/chatgw/utils/http"
	"chatgw/chatgw/utils/logging"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const msgInternal = "internal server error"

func unavailableMessage(reason string) string {
	return fmt.Sprintf("Ollama is unavailable (%s). Make sure the Ollama server is running (ollama serve) and try again.", reason)
}

// mapServiceError is the one place service errors become HTTP responses.
func mapServiceError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetReqID(r.Context())

	var llmErr *llm.Error
	if errors.As(err, &llmErr) {
		logging.ErrorLogger.Error("inference unavailable",
			zap.String("request_id", reqID),
			zap.String("kind", llmErr.Kind.String()),
			zap.Error(err))
		httputils.WriteError(w, http.StatusServiceUnavailable, unavailableMessage(llmErr.Reason()))
		return
	}

	logging.ErrorLogger.Error("unexpected error",
		zap.String("request_id", reqID),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	httputils.WriteError(w, http.StatusInternalServerError, msgInternal)
}
