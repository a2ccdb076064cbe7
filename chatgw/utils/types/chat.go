package types

// Roles accepted in ChatMessage.Role.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatRequest is the body of POST /api/chat.
// Model and Temperature are optional; nil means "use the gateway default".
type ChatRequest struct {
	Messages    []ChatMessage `json:"messages" validate:"required,min=1,dive"`
	Model       *string       `json:"model,omitempty"`
	Temperature *float64      `json:"temperature,omitempty" validate:"omitempty,gte=0,lte=1"`
	Stream      bool          `json:"stream"`
	SessionID   *string       `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

// ChatResponse always carries all four keys; Notice encodes as null when unset.
type ChatResponse struct {
	SessionID string  `json:"session_id"`
	Answer    string  `json:"answer"`
	Model     string  `json:"model"`
	Notice    *string `json:"notice"`
}

type HealthResponse struct {
	Status       string `json:"status"`
	Ollama       bool   `json:"ollama"`
	DefaultModel string `json:"default_model"`
}

// ServiceInfo is served on GET / so a browser hitting the root sees where to go.
type ServiceInfo struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Version string `json:"version"`
	Health  string `json:"health"`
	Chat    string `json:"chat"`
}

// ErrorResponse is the body of every non-2xx gateway response.
type ErrorResponse struct {
	Detail interface{} `json:"detail"`
}
