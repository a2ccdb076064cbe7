package routes

import (
	"net/http"
	"time"

	"chatgw/chatgw/config"
	"chatgw/chatgw/controllers"
	"chatgw/chatgw/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// handlerSlack is added to the chat timeout so the inference call times out
// before the server-side request deadline does.
const handlerSlack = 5 * time.Second

// Deps are the services the HTTP layer calls into.
type Deps struct {
	Pinger controllers.Pinger
	Chat   controllers.ChatProcessor
}

// NewRouter builds the full gateway handler: middleware stack, GET /,
// /api/health and /api/chat.
func NewRouter(cfg config.Config, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CORS(cfg.CORSOrigins))
	r.Use(middleware.Timeout(cfg.ChatTimeout + handlerSlack))

	var limiter *middlewares.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middlewares.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	healthCtrl := controllers.NewHealthController(deps.Pinger, cfg.OllamaModel)
	chatCtrl := controllers.NewChatController(deps.Chat)

	r.Get("/", controllers.ServiceInfo)
	r.Route("/api", func(api chi.Router) {
		api.Mount("/health", HealthRoutes(healthCtrl))
		api.Mount("/chat", ChatRoutes(chatCtrl, cfg, limiter))
	})
	return r
}
