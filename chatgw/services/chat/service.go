package chat

import (
	"context"
	"fmt"
	"strings"

	"chatgw/chatgw/services/llm"
	"chatgw/chatgw/utils/logging"
	"chatgw/chatgw/utils/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InferenceClient is the part of the Ollama client the service depends on.
type InferenceClient interface {
	HasModel(ctx context.Context, name string) (bool, error)
	Chat(ctx context.Context, messages []llm.Message, model string, opts ...llm.ChatOption) (string, error)
}

const EmptyAnswerNotice = "The model returned no answer. Try rephrasing the question or sending it again."

// NotInstalledNotice tells the user how to install a missing model.
func NotInstalledNotice(model string) string {
	return fmt.Sprintf("Model '%s' is not installed in Ollama. Install it with: ollama pull %s, or choose another model.", model, model)
}

// NewSessionID returns a fresh "sess-" + 8 hex character label.
func NewSessionID() string {
	return "sess-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

type Service struct {
	client             InferenceClient
	defaultModel       string
	defaultTemperature float64
}

func NewService(client InferenceClient, defaultModel string, defaultTemperature float64) *Service {
	logging.AppLogger.Info("chat service initialized",
		zap.String("default_model", defaultModel), zap.Float64("default_temperature", defaultTemperature))
	return &Service{
		client:             client,
		defaultModel:       strings.TrimSpace(defaultModel),
		defaultTemperature: defaultTemperature,
	}
}

func (s *Service) DefaultModel() string {
	return s.defaultModel
}

// ProcessChat resolves the model, checks it is installed and runs the
// completion. A missing model or an empty answer is reported through
// Notice; inference errors are returned untouched for the caller to map.
func (s *Service) ProcessChat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	defer logging.LogDuration(ctx, "process_chat")()

	model := s.resolveModel(req.Model)
	sessionID := NewSessionID()
	if req.SessionID != nil && strings.TrimSpace(*req.SessionID) != "" {
		sessionID = strings.TrimSpace(*req.SessionID)
	}
	log := logging.AppLogger.With(zap.String("session_id", sessionID), zap.String("model", model))
	log.Info("processing chat", zap.Int("messages", len(req.Messages)))

	available, err := s.client.HasModel(ctx, model)
	if err != nil {
		return nil, err
	}
	if !available {
		log.Warn("model not installed")
		notice := NotInstalledNotice(model)
		return &types.ChatResponse{SessionID: sessionID, Answer: "", Model: model, Notice: &notice}, nil
	}

	temperature := s.defaultTemperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	answer, err := s.client.Chat(ctx, toLLMMessages(req.Messages), model, llm.WithTemperature(temperature))
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(answer) == "" {
		log.Warn("model returned empty answer")
		notice := EmptyAnswerNotice
		return &types.ChatResponse{SessionID: sessionID, Answer: "", Model: model, Notice: &notice}, nil
	}
	return &types.ChatResponse{SessionID: sessionID, Answer: answer, Model: model}, nil
}

func (s *Service) resolveModel(requested *string) string {
	if requested != nil {
		if m := strings.TrimSpace(*requested); m != "" {
			return m
		}
	}
	return s.defaultModel
}

func toLLMMessages(in []types.ChatMessage) []llm.Message {
	out := make([]llm.Message, len(in))
	for i, m := range in {
		out[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	return out
}
