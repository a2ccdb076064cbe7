// Command-line interface for the chat gateway: preflight checks and a
// terminal chat client.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"chatgw/chatgw/config"
	"chatgw/chatgw/preflight"
	"chatgw/chatgw/services/gateway"
	"chatgw/chatgw/services/llm"
	"chatgw/chatgw/utils/color"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "preflight":
		os.Exit(runPreflight(ctx, args[1:]))
	case "connect":
		os.Exit(runConnect(ctx, args[1:]))
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("chatgw-cli usage:")
	fmt.Println("  chatgw-cli preflight [-env .env]   # Check the environment before starting the gateway")
	fmt.Println("  chatgw-cli connect [-model NAME]   # Chat with the gateway from this terminal")
}

func runPreflight(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("preflight", flag.ExitOnError)
	envPath := fs.String("env", ".env", "path of the .env file")
	noColor := fs.Bool("no-color", false, "disable colored output")
	_ = fs.Parse(args)
	if *noColor {
		color.Disable()
	}

	report := preflight.Run(ctx, preflight.Env{
		DotEnvPath: *envPath,
		Lookup:     os.LookupEnv,
		LookPath:   exec.LookPath,
		Ping: func(ctx context.Context, host string) bool {
			return llm.NewOllamaClient(llm.ClientConfig{BaseURL: host}).Ping(ctx)
		},
	})

	for _, res := range report.Results {
		line := res.Label
		if res.Detail != "" {
			line += "  " + res.Detail
		}
		if res.Hint != "" {
			line += " | hint: " + res.Hint
		}
		tag := "[" + res.Status.String() + "]"
		switch res.Status {
		case preflight.StatusOK:
			tag = color.ColorOK(tag)
		case preflight.StatusFail:
			tag = color.ColorError(tag)
		default:
			tag = color.ColorInfo(tag)
		}
		fmt.Println(tag, line)
	}

	fmt.Println("\nPreflight done.")
	if report.Failed() {
		return 1
	}
	return 0
}

func runConnect(ctx context.Context, args []string) int {
	_ = godotenv.Load()

	fs := flag.NewFlagSet("connect", flag.ExitOnError)
	apiURL := fs.String("url", os.Getenv(config.EnvAPIURL), "gateway URL (.../api or .../api/chat)")
	apiKey := fs.String("key", os.Getenv(config.EnvAPIKey), "gateway API key")
	model := fs.String("model", os.Getenv(config.EnvOllamaModel), "model to use (empty means the gateway default)")
	temperature := fs.Float64("temp", llm.DefaultTemperature, "sampling temperature in [0, 1]")
	_ = fs.Parse(args)

	if strings.TrimSpace(*apiURL) == "" || strings.TrimSpace(*apiKey) == "" {
		fmt.Println(color.ColorError("API_URL and APP_API_KEY are required (set them in .env or pass -url and -key)"))
		return 1
	}
	if *temperature < 0 || *temperature > 1 {
		fmt.Println(color.ColorError("-temp must be between 0 and 1"))
		return 1
	}

	client := gateway.NewClient(*apiURL, *apiKey)
	sessionID := "cli-" + uuid.New().String()[:8]

	fmt.Printf("\nConnected to %s (health: %s)\n", client.ChatURL(), client.HealthURL())
	fmt.Println("Session:", sessionID)
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  /model <name>   switch model")
	fmt.Println("  /temp <0..1>    set temperature")
	fmt.Println("  /clear          forget the conversation")
	fmt.Println("  /health         show gateway health")
	fmt.Println("Type your message or 'exit' to quit.")
	fmt.Println()

	newREPL(client, os.Stdout, sessionID, *model, *temperature).run(ctx, os.Stdin)
	return 0
}
