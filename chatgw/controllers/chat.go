package controllers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	httputils "chatgw/chatgw/utils/http"
	"chatgw/chatgw/utils/types"
)

// MaxBodyBytes caps the size of a chat request body.
const MaxBodyBytes = 1 << 20

type ChatProcessor interface {
	ProcessChat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error)
}

type ChatController struct {
	service ChatProcessor
}

func NewChatController(service ChatProcessor) *ChatController {
	return &ChatController{service: service}
}

func (c *ChatController) Chat(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputils.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		mapServiceError(w, r, err)
		return
	}

	req, err := types.DecodeChatRequest(bytes.NewReader(body))
	if err != nil {
		var verrs types.ValidationErrors
		if errors.As(err, &verrs) {
			httputils.WriteError(w, http.StatusUnprocessableEntity, verrs)
			return
		}
		mapServiceError(w, r, err)
		return
	}

	resp, err := c.service.ProcessChat(r.Context(), req)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	httputils.WriteJSON(w, http.StatusOK, resp)
}
