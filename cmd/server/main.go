package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"chat-relay/infrastructure/httpapi"
	"chat-relay/infrastructure/ws"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/presence"
	"chat-relay/repositories"
	"chat-relay/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the whole relay and owns its lifecycle. Returning the
// error instead of exiting keeps deferred cleanups (database close)
// running on every path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.NewLogger(config.LogLevel)

	// 2. Message store (SQLite)
	db, err := repositories.OpenSQLite(config.SQLitePath)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing SQLite...")
		_ = db.Close()
	}()
	repository := repositories.NewMessageRepository(db, log)

	// 3. Optional moderation
	var censor services.Censor
	if config.CensoredDir != "" {
		replacement, err := internal.CharacterRune(config.CharReplacement)
		if err != nil {
			return err
		}
		words, err := moderation.LoadWords(os.DirFS(config.CensoredDir))
		if err != nil {
			return fmt.Errorf("loading censored words: %w", err)
		}
		log.Info(fmt.Sprintf("%d unique censored words loaded", len(words)))
		censor, err = moderation.NewModerator(words, replacement)
		if err != nil {
			return fmt.Errorf("building moderator: %w", err)
		}
	}

	// 4. Core: presence, routing, history
	registry := presence.NewRegistry()
	hub := ws.NewHub()
	router := services.NewRouter(log, registry, repository, hub, censor)
	history := services.NewHistoryService(log, repository)

	// 5. HTTP surface
	wsServer := ws.NewServer(log, hub, router, history)
	handler := httpapi.NewRouter(
		wsServer.HandleWS,
		internal.NewDebugHandler(log, repository),
		httpapi.NewHistoryHandler(log, history),
	)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: handler}

	// 6. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting relay server", "address", address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Program stopped cleanly")

	return nil
}
