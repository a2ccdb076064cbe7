package routes

import (
	"chatgw/chatgw/config"
	"chatgw/chatgw/controllers"
	"chatgw/chatgw/middlewares"

	"github.com/go-chi/chi/v5"
)

// ChatRoutes serves POST /chat behind bearer auth. A nil limiter disables
// rate limiting.
func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config, limiter *middlewares.RateLimiter) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		if limiter != nil {
			gr.Use(limiter.Middleware)
		}
		gr.Use(middlewares.AuthMiddleware(cfg))
		gr.Post("/", ctrl.Chat)
	})
	return r
}
