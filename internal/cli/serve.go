package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/logger"
	"github.com/Jackob-K/personal-ai-infra/internal/server"
)

type ServeCmd struct {
	Addr string `help:"Listen address." default:":8080"`
}

func (cmd *ServeCmd) Run(ctx *Context) error {
	if pid, running := serverAlreadyRunning(ctx.Store.GetConfigPath()); running {
		return fmt.Errorf("another 'assistant serve' instance is already running (PID %d)", pid)
	}
	if err := WriteServeLockfile(ctx.Store.GetConfigPath()); err != nil {
		logger.Warn("failed to write serve lockfile", "error", err)
	}
	defer RemoveServeLockfile(ctx.Store.GetConfigPath())

	srv := server.New(server.Deps{
		Planner:    ctx.Planner,
		Proposals:  ctx.Proposals,
		Classifier: ctx.Classifier,
		Ingest:     ctx.IngestFlow(),
		Travel:     ctx.Travel,
		Accounts:   ctx.Accounts,
	})

	httpSrv := &http.Server{
		Addr:              cmd.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", cmd.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}
	return nil
}
