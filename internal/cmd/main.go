package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DMarby/instafilter/internal/logger"
)

// Http timeouts
const (
	ReadTimeout    = 5 * time.Second
	WriteTimeout   = time.Minute
	HandlerTimeout = 45 * time.Second
)

// WaitForInterrupt waits for an interrupt
func WaitForInterrupt(ctx context.Context) error {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-c:
		return fmt.Errorf("received signal %s", sig)
	case <-ctx.Done():
		return errors.New("canceled")
	}
}

// NewServer returns a http server with the default timeouts
func NewServer(log *logger.Logger, address string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         address,
		Handler:      handler,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		ErrorLog:     logger.NewHTTPErrorLog(log),
	}
}

// Shutdown gracefully shuts down a http server, waiting at most WriteTimeout for requests to finish
func Shutdown(log *logger.Logger, server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warnf("error shutting down: %s", err)
	}
}
