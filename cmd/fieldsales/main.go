// Package main запускает HTTP-сервер сервиса полевых продаж.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/fieldsales-system/internal/config"
	"github.com/mmeshcher/fieldsales-system/internal/drivestore"
	"github.com/mmeshcher/fieldsales-system/internal/handler"
	"github.com/mmeshcher/fieldsales-system/internal/middleware"
	"github.com/mmeshcher/fieldsales-system/internal/service"
	"github.com/mmeshcher/fieldsales-system/internal/sheetstore"
	"github.com/mmeshcher/fieldsales-system/internal/shopcache"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tabular, err := sheetstore.New(ctx, cfg.SpreadsheetID, cfg.CredentialsFile)
	if err != nil {
		sugar.Fatalw("spreadsheet initialization error", "error", err.Error())
	}

	// Лист пользователей создаётся при первом запуске, лист заявок должен существовать.
	if err := tabular.EnsureWorksheet(ctx, sheetstore.WorksheetUsers, sheetstore.UsersHeader); err != nil {
		sugar.Fatalw("users worksheet initialization error", "error", err.Error())
	}

	blobs, err := drivestore.New(ctx, cfg.DriveFolderID, cfg.CredentialsFile)
	if err != nil {
		sugar.Fatalw("drive folder initialization error", "error", err.Error())
	}

	cache := shopcache.New(shopcache.DefaultTTL)
	svc := service.NewService(tabular, blobs, cache, logger)

	sessionMiddleware := middleware.NewSessionMiddleware("fieldsales-secret")
	h := handler.NewHandler(svc, logger, sessionMiddleware)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting fieldsales server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
