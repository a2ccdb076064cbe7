package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chatgw/chatgw/config"
	"chatgw/chatgw/routes"
	"chatgw/chatgw/services/chat"
	"chatgw/chatgw/services/llm"
	"chatgw/chatgw/utils/logging"
	"chatgw/chatgw/version"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	if err := logging.InitLogger(cfg.LogDir); err != nil {
		fmt.Fprintln(os.Stderr, "logging init error:", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ollama := llm.NewOllamaClient(llm.ClientConfig{
		BaseURL:     cfg.OllamaHost,
		PingTimeout: cfg.PingTimeout,
		ChatTimeout: cfg.ChatTimeout,
	})
	chatService := chat.NewService(ollama, cfg.OllamaModel, cfg.DefaultTemperature)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           routes.NewRouter(cfg, routes.Deps{Pinger: ollama, Chat: chatService}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logging.AppLogger.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("version", version.Full()),
			zap.String("ollama_host", cfg.OllamaHost),
			zap.String("default_model", cfg.OllamaModel))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
		return
	}
	logging.AppLogger.Info("server shutdown complete")
}
