package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nekoverse/nekobot/internal/config"
	"github.com/nekoverse/nekobot/internal/handler"
	"github.com/nekoverse/nekobot/internal/llm"
	"github.com/nekoverse/nekobot/internal/service/assistant"
	"github.com/nekoverse/nekobot/internal/service/conversation"
	"github.com/nekoverse/nekobot/internal/service/folder"
	"github.com/nekoverse/nekobot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if !cfg.AI.Enabled() {
		log.Fatalf("OPENROUTER_API_KEY is required")
	}

	defaultFolder := cfg.Assistant.DefaultFolderName
	if defaultFolder == "" {
		defaultFolder = assistant.DefaultFolderName
	}
	systemPrompt := cfg.Assistant.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = assistant.DefaultSystemPrompt
	}

	folderSvc := folder.NewService(defaultFolder)
	chatSvc := conversation.NewService(folderSvc)
	completer := llm.NewClient(cfg.AI.ClientConfig())
	assistantSvc := assistant.NewService(folderSvc, chatSvc, completer, systemPrompt, assistant.DefaultTriggers())

	if cfg.Telegram.Enabled() {
		client := telegram.NewClient(cfg.Telegram.APIBase, cfg.Telegram.Token, cfg.Telegram.PollTimeout)
		poller := telegram.NewPoller(client, assistantSvc, cfg.Telegram.PollTimeout)
		go poller.Run(ctx)
	} else {
		log.Println("TELEGRAM_TOKEN not set, Telegram transport disabled")
	}

	router := handler.NewRouter(assistantSvc)
	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("NekoVerse backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
