package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aloche971/VoiceApp/internal/server"
	"github.com/aloche971/VoiceApp/internal/signaling"
)

func main() {
	w := zerolog.ConsoleWriter{Out: os.Stdout}
	log := zerolog.New(w).With().Timestamp().Logger()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	registry := signaling.NewRegistry(log.With().Str("component", "registry").Logger())
	hub := signaling.NewHub(registry, log.With().Str("component", "hub").Logger())
	go hub.Run()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: server.NewRouter(hub, log),
	}

	go func() {
		log.Info().Str("port", port).Msg("starting signaling server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	hub.Stop()
}
