package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"taskboard/internal/server"
	"taskboard/internal/storage/sqlite"
	"taskboard/internal/util"
)

func main() {
	addrFlag := flag.String("addr", util.EnvOrDefault("TASKBOARD_ADDR", ":8080"), "HTTP listen address")
	dbFlag := flag.String("db", util.EnvOrDefault("TASKBOARD_DB_PATH", "data/taskboard.db"), "Path to sqlite database file")
	staticFlag := flag.String("static", util.EnvOrDefault("TASKBOARD_STATIC_DIR", ""), "Directory with built frontend")
	defaultStatusFlag := flag.String("default-status", util.EnvOrDefault("TASKBOARD_DEFAULT_STATUS", ""), "Status name assigned to new tasks that specify none")
	logLevelFlag := flag.String("log-level", util.EnvOrDefault("TASKBOARD_LOG_LEVEL", "info"), "Log level: debug, info, warn, error")
	logFormatFlag := flag.String("log-format", util.EnvOrDefault("TASKBOARD_LOG_FORMAT", "text"), "Log format: text or json")
	readTimeoutFlag := flag.Duration("read-timeout", util.EnvDurationOrDefault("TASKBOARD_READ_TIMEOUT", 15*time.Second), "HTTP read timeout")
	writeTimeoutFlag := flag.Duration("write-timeout", util.EnvDurationOrDefault("TASKBOARD_WRITE_TIMEOUT", 15*time.Second), "HTTP write timeout")
	shutdownTimeoutFlag := flag.Duration("shutdown-timeout", util.EnvDurationOrDefault("TASKBOARD_SHUTDOWN_TIMEOUT", 5*time.Second), "Graceful shutdown timeout")
	flag.Parse()

	logger, err := newLogger(os.Stdout, *logLevelFlag, *logFormatFlag)
	if err != nil {
		slog.Error("invalid logging configuration", slog.String("error", err.Error()))
		os.Exit(2)
	}
	slog.SetDefault(logger)

	store, err := sqlite.Open(*dbFlag, logger)
	if err != nil {
		logger.Error("unable to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	srv := server.New(store, logger, server.Options{
		StaticDir:     *staticFlag,
		DefaultStatus: *defaultStatusFlag,
	})

	httpServer := &http.Server{
		Addr:              *addrFlag,
		Handler:           srv.Engine(),
		ReadTimeout:       *readTimeoutFlag,
		ReadHeaderTimeout: *readTimeoutFlag,
		WriteTimeout:      *writeTimeoutFlag,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", httpServer.Addr), slog.String("db", *dbFlag))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), *shutdownTimeoutFlag)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("failed to shutdown server", slog.String("error", err.Error()))
	}

	logger.Info("server stopped")
}

func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	lvl, err := util.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, errors.New("unknown log format " + format)
	}
}
