package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"chatgw/chatgw/services/gateway"
	"chatgw/chatgw/utils/color"
	"chatgw/chatgw/utils/jsonutils"
	"chatgw/chatgw/utils/types"
)

const msgNoAnswer = "The model returned no answer. Try rephrasing the question or choosing another model."

type chatClient interface {
	Health(ctx context.Context, requireOllama bool) (*types.HealthResponse, error)
	Chat(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error)
}

type repl struct {
	client      chatClient
	out         io.Writer
	sessionID   string
	model       string
	temperature float64
	history     []types.ChatMessage
}

func newREPL(client chatClient, out io.Writer, sessionID, model string, temperature float64) *repl {
	return &repl{
		client:      client,
		out:         out,
		sessionID:   sessionID,
		model:       model,
		temperature: temperature,
	}
}

func (r *repl) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) warn(msg string) {
	r.printf("%s\n", color.ColorWarning("⚠ "+msg))
}

// run reads lines until EOF or "exit".
func (r *repl) run(ctx context.Context, in io.Reader) {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for {
		r.printf("%s", color.ColorPrompt("chatgw> "))
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			r.printf("Goodbye!\n")
			return
		}
		if strings.HasPrefix(line, "/") {
			r.command(ctx, line)
			continue
		}
		r.send(ctx, line)
	}
	r.printf("\n")
}

func (r *repl) command(ctx context.Context, line string) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/model":
		if arg == "" {
			r.printf("%s\n", color.ColorInfo("model: "+r.modelLabel()))
			return
		}
		r.model = arg
		r.printf("%s\n", color.ColorInfo("model set to "+arg))
	case "/temp":
		t, err := strconv.ParseFloat(arg, 64)
		if err != nil || t < 0 || t > 1 {
			r.warn("temperature must be a number between 0 and 1")
			return
		}
		r.temperature = t
		r.printf("%s\n", color.ColorInfo("temperature set to "+strconv.FormatFloat(t, 'f', -1, 64)))
	case "/clear":
		r.history = nil
		r.printf("%s\n", color.ColorInfo("history cleared"))
	case "/health":
		h, err := r.client.Health(ctx, false)
		if err != nil {
			r.warn(err.Error())
			return
		}
		r.printf("%s\n", jsonutils.ToJSON(h))
	default:
		r.warn("unknown command " + name + " (try /model, /temp, /clear, /health or exit)")
	}
}

func (r *repl) modelLabel() string {
	if r.model == "" {
		return "(gateway default)"
	}
	return r.model
}

// send health-checks the gateway, posts the prompt with the running history
// and prints exactly one outcome: a warning or the answer.
func (r *repl) send(ctx context.Context, prompt string) {
	if _, err := r.client.Health(ctx, true); err != nil {
		r.warn(err.Error())
		return
	}

	messages := append(append([]types.ChatMessage{}, r.history...), types.ChatMessage{Role: types.RoleUser, Content: prompt})
	req := types.ChatRequest{Messages: messages, SessionID: &r.sessionID}
	temperature := r.temperature
	req.Temperature = &temperature
	if r.model != "" {
		model := r.model
		req.Model = &model
	}

	resp, err := r.client.Chat(ctx, req)
	if err != nil {
		var apiErr *gateway.APIError
		if errors.As(err, &apiErr) {
			r.warn(apiErr.Detail)
			return
		}
		r.printf("%s\n", color.ColorError("error: "+err.Error()))
		return
	}

	if resp.Notice != nil && strings.TrimSpace(*resp.Notice) != "" {
		r.warn(strings.TrimSpace(*resp.Notice))
		return
	}
	answer := strings.TrimSpace(resp.Answer)
	if answer == "" {
		r.warn(msgNoAnswer)
		return
	}

	r.history = append(messages, types.ChatMessage{Role: types.RoleAssistant, Content: answer})
	r.printf("%s\n\n", color.ColorAnswer(answer))
}
