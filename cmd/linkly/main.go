// Модуль main - веб-интерфейс Linkly: читает конфигурацию, создаёт клиент
// сервиса и хранилище посетителей и запускает HTTP-сервер.
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

	"go.uber.org/zap"

	"github.com/sol1corejz/linkly/cmd/config"
	"github.com/sol1corejz/linkly/internal/cert"
	"github.com/sol1corejz/linkly/internal/client"
	"github.com/sol1corejz/linkly/internal/collection"
	"github.com/sol1corejz/linkly/internal/handlers"
	"github.com/sol1corejz/linkly/internal/logger"
	"github.com/sol1corejz/linkly/internal/models"
	"github.com/sol1corejz/linkly/internal/platform"
	"github.com/sol1corejz/linkly/internal/session"
	"github.com/sol1corejz/linkly/internal/storage"
)

// Информация о сборке, задаётся через -ldflags.
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
	buildCommit  = "N/A"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)

	if err := config.ParseFlags(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Log.Error("Failed to run server", zap.Error(err))
		os.Exit(1)
	}
	logger.Log.Info("Server Shutdown gracefully")
}

// run запускает сервер и блокируется до отмены ctx.
func run(ctx context.Context) error {
	if err := logger.Initialize(config.FlagLogLevel); err != nil {
		return err
	}
	defer logger.Log.Sync()

	h, store, err := newHandler()
	if err != nil {
		return err
	}
	defer store.Close()

	go store.Run(ctx, time.Minute)

	srv := &http.Server{
		Addr:              config.FlagRunAddr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Running server",
			zap.String("address", config.FlagRunAddr),
			zap.String("backend", config.FlagBackendURL),
			zap.Bool("https", config.EnableHTTPS),
		)
		errCh <- serve(srv)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server Shutdown failed: %w", err)
	}
	return nil
}

func serve(srv *http.Server) error {
	var err error
	if config.EnableHTTPS {
		if err := cert.Ensure(cert.CertificateFilePath, cert.KeyFilePath); err != nil {
			return fmt.Errorf("failed to prepare TLS certificate: %w", err)
		}
		err = srv.ListenAndServeTLS(cert.CertificateFilePath, cert.KeyFilePath)
	} else {
		err = srv.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// newHandler собирает зависимости веб-интерфейса из конфигурации.
func newHandler() (*handlers.Handler, *storage.MemoryStorage, error) {
	field, err := models.ParseBodyField(config.FlagBodyField)
	if err != nil {
		return nil, nil, err
	}

	api, err := client.New(config.FlagBackendURL,
		client.WithBodyField(field),
		client.WithTimeout(config.RequestTimeout),
	)
	if err != nil {
		return nil, nil, err
	}

	site := platform.Static{Origin: config.FlagSiteURL}
	store := storage.NewMemoryStorage(func(_ string, alerts *storage.Flash) (*session.Session, *collection.Collection) {
		return session.New(api), collection.New(api,
			collection.WithNotifier(alerts),
			collection.WithPlatform(site),
			collection.WithRefreshInterval(config.RefreshInterval),
		)
	}, config.VisitorIdleTTL)

	h, err := handlers.New(api, store, handlers.Options{
		BackendURL:    config.FlagBackendURL,
		SiteURL:       site.CurrentOrigin(),
		NoticeTTL:     config.NoticeTTL,
		Secret:        []byte(config.SecretKey),
		SecureCookie:  config.EnableHTTPS,
		TrustedSubnet: config.TrustedSubnet,
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return h, store, nil
}
