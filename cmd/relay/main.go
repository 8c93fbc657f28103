package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/koenbollen/logging"
	"github.com/poki/tracking/internal"
	"github.com/poki/tracking/internal/util"
	"github.com/poki/tracking/tracking"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	logger := logging.New(ctx, "tracking", "relay")
	defer logger.Sync() // nolint:errcheck
	logger.Info("init")
	ctx = logging.WithLogger(ctx, logger)

	token := os.Getenv("TOKEN")
	if token == "" {
		logger.Fatal("no project token configured, set TOKEN")
	}
	client := tracking.NewClient(token, tracking.Options{
		DisableSSL: !util.GetenvBool("SSL", true),
		Logger:     logger,
	})

	mux := internal.Relay(client)

	cors := cors.Default()
	handler := logging.Middleware(cors.Handler(mux), logger)

	addr := util.Getenv("ADDR", ":8080")
	server := &http.Server{
		Addr:    addr,
		Handler: handler,

		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  650 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to listen and server", zap.Error(err))
		}
	}()
	logger.Info("listening", zap.String("addr", addr))

	<-ctx.Done()

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("failed to shutdown server", zap.Error(err))
	}
}
