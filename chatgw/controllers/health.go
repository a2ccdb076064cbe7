package controllers

import (
	"context"
	"net/http"

	httputils "chatgw/chatgw/utils/http"
	"chatgw/chatgw/utils/types"
)

// Pinger reports whether the inference server answers.
type Pinger interface {
	Ping(ctx context.Context) bool
}

type HealthController struct {
	pinger       Pinger
	defaultModel string
}

func NewHealthController(pinger Pinger, defaultModel string) *HealthController {
	return &HealthController{pinger: pinger, defaultModel: defaultModel}
}

// HealthCheck always answers 200; "ollama" carries the probe result.
func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputils.WriteJSON(w, http.StatusOK, types.HealthResponse{
		Status:       "ok",
		Ollama:       h.pinger.Ping(r.Context()),
		DefaultModel: h.defaultModel,
	})
}
