// Package http - HTTP Server configuration and lifecycle management.
//
// Server управляет жизненным циклом HTTP сервера:
// - Graceful startup
// - Graceful shutdown
// - Timeout configuration
package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// ServerConfig - конфигурация HTTP сервера.
type ServerConfig struct {
	// Addr для прослушивания (e.g., "0.0.0.0:8080")
	Addr string
	// ReadTimeout - максимальное время чтения запроса
	ReadTimeout time.Duration
	// WriteTimeout - максимальное время записи ответа
	WriteTimeout time.Duration
	// IdleTimeout - максимальное время ожидания следующего запроса
	IdleTimeout time.Duration
	// ShutdownTimeout - время на graceful shutdown
	ShutdownTimeout time.Duration
	// Logger для логирования
	Logger *slog.Logger
}

// DefaultServerConfig - конфигурация по умолчанию.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Addr:            "0.0.0.0:8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Logger:          slog.Default(),
	}
}

// Server - HTTP сервер с graceful shutdown.
type Server struct {
	config     *ServerConfig
	httpServer *http.Server
}

// NewServer создаёт новый HTTP сервер.
func NewServer(config *ServerConfig, router *gin.Engine) *Server {
	if config == nil {
		config = DefaultServerConfig()
	}

	return &Server{
		config: config,
		httpServer: &http.Server{
			Addr:         config.Addr,
			Handler:      router,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

// Start запускает сервер.
func (s *Server) Start() error {
	s.config.Logger.Info("Starting HTTP server",
		slog.String("address", s.config.Addr),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// Shutdown выполняет graceful shutdown сервера.
func (s *Server) Shutdown(ctx context.Context) error {
	s.config.Logger.Info("Shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.config.Logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		return err
	}

	s.config.Logger.Info("HTTP server stopped gracefully")
	return nil
}

// Run запускает сервер с обработкой сигналов для graceful shutdown.
//
// При получении SIGINT/SIGTERM:
// 1. Прекращает приём новых соединений
// 2. Дожидается завершения активных запросов
// 3. Завершает работу
func (s *Server) Run() error {
	errChan := make(chan error, 1)

	go func() {
		if err := s.Start(); err != nil {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.config.Logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
	}

	return s.Shutdown(context.Background())
}

// RunWithContext запускает сервер с возможностью отмены через контекст.
// Удобно для тестирования и программного управления.
func (s *Server) RunWithContext(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		if err := s.Start(); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		s.config.Logger.Info("Context cancelled, initiating shutdown")
	}

	return s.Shutdown(context.Background())
}
