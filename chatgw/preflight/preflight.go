// Package preflight checks that a machine is ready to run the gateway:
// environment variables present and sane, Ollama installed and reachable.
package preflight

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"chatgw/chatgw/config"

	"github.com/joho/godotenv"
)

type Status int

const (
	StatusOK Status = iota
	StatusFail
	StatusInfo
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusFail:
		return "FAIL"
	}
	return "INFO"
}

const (
	MinKeyLength   = 32
	MinUniqueChars = 10
	placeholderKey = "change-me"
)

type Result struct {
	Label  string
	Status Status
	Detail string
	Hint   string
}

type Report struct {
	Results []Result
}

// Failed reports whether any check ended in StatusFail.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return true
		}
	}
	return false
}

func (r *Report) add(label string, ok bool, detail, hint string) bool {
	res := Result{Label: label, Status: StatusOK, Detail: detail}
	if !ok {
		res.Status = StatusFail
		res.Hint = hint
	}
	r.Results = append(r.Results, res)
	return ok
}

func (r *Report) info(label, detail string) {
	r.Results = append(r.Results, Result{Label: label, Status: StatusInfo, Detail: detail})
}

// Env abstracts the machine so checks can run without a real environment.
type Env struct {
	// DotEnvPath is loaded with godotenv before the variables are read.
	// Empty means ".env".
	DotEnvPath string
	Lookup     func(string) (string, bool)
	LookPath   func(string) (string, error)
	// Ping reports whether an Ollama server answers at host.
	Ping func(ctx context.Context, host string) bool
}

// Run executes every check in order and returns the collected results.
func Run(ctx context.Context, env Env) *Report {
	r := &Report{}
	path := env.DotEnvPath
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err == nil {
		r.add(".env loaded", true, path, "")
	} else {
		r.info(".env not found (reading environment only)", "")
	}

	lookup := env.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	get := func(name string) string {
		v, _ := lookup(name)
		return strings.TrimSpace(v)
	}

	if env.LookPath != nil {
		if p, err := env.LookPath("ollama"); err == nil {
			r.add("ollama on PATH", true, p, "")
		} else {
			r.info("ollama not on PATH", "install it from https://ollama.com or make sure the server runs elsewhere")
		}
	}

	apiKey := get(config.EnvAPIKey)
	ollamaHost := strings.TrimRight(get(config.EnvOllamaHost), "/")
	model := get(config.EnvOllamaModel)
	apiURL := get(config.EnvAPIURL)

	if r.add("env var present: "+config.EnvAPIKey, apiKey != "", "", "set APP_API_KEY in .env") {
		r.Results = append(r.Results, CheckAPIKey(apiKey)...)
	}

	if r.add("env var present: "+config.EnvOllamaHost, ollamaHost != "", "", "set OLLAMA_HOST in .env (e.g. http://127.0.0.1:11434)") {
		r.add(config.EnvOllamaHost+" looks like URL", ValidHTTPURL(ollamaHost), ollamaHost, "use an http:// or https:// URL")
	}

	r.add("env var present: "+config.EnvOllamaModel, model != "", model, "set OLLAMA_MODEL in .env (e.g. phi or mistral)")

	if r.add("env var present: "+config.EnvAPIURL, apiURL != "", "", "set API_URL in .env (e.g. http://127.0.0.1:8000/api/chat)") {
		r.add(config.EnvAPIURL+" looks like URL", ValidHTTPURL(apiURL), apiURL, "use an http:// or https:// URL")
	}

	switch {
	case !ValidHTTPURL(ollamaHost):
		r.add("Ollama reachable", false, "invalid OLLAMA_HOST URL", "")
	case env.Ping == nil:
		r.info("Ollama reachability not checked", "")
	default:
		label := fmt.Sprintf("Ollama reachable at %s", ollamaHost)
		r.add(label, env.Ping(ctx, ollamaHost), "", "start it with: ollama serve")
	}
	return r
}

// CheckAPIKey applies the key strength rules to a present key.
func CheckAPIKey(key string) []Result {
	r := &Report{}
	r.add("APP_API_KEY not default placeholder", key != placeholderKey, "", "replace change-me with a generated key")
	r.add(fmt.Sprintf("APP_API_KEY length >= %d characters", MinKeyLength),
		len(key) >= MinKeyLength, "", "generate one with: openssl rand -hex 32")
	r.add(fmt.Sprintf("APP_API_KEY has sufficient entropy (>= %d unique characters)", MinUniqueChars),
		uniqueChars(key) >= MinUniqueChars, "", "use a freshly generated token")
	return r.Results
}

func uniqueChars(s string) int {
	seen := make(map[rune]struct{}, len(s))
	for _, c := range s {
		seen[c] = struct{}{}
	}
	return len(seen)
}

// ValidHTTPURL accepts absolute http(s) URLs with a host.
func ValidHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
