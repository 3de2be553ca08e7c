package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ROM1024/2025-BEBOP/internal/profile"
	"github.com/ROM1024/2025-BEBOP/internal/observability"
	apiv1 "github.com/ROM1024/2025-BEBOP/server/router/api/v1"
	"github.com/ROM1024/2025-BEBOP/server/service/schedule"
)

// shutdownTimeout bounds the graceful stop, including the final save.
const shutdownTimeout = 10 * time.Second

type Server struct {
	Profile *profile.Profile
	Service schedule.Service

	echoServer *echo.Echo
	listener   net.Listener
}

func NewServer(ctx context.Context, profile *profile.Profile, svc schedule.Service, metrics *observability.Metrics, loc *time.Location) (*Server, error) {
	s := &Server{
		Profile: profile,
		Service: svc,
	}

	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.RequestID())
	echoServer.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				slog.Warn("request", append(attrs, "error", v.Error.Error())...)
				return nil
			}
			slog.Debug("request", attrs...)
			return nil
		},
	}))
	s.echoServer = echoServer

	apiV1Service := apiv1.NewAPIV1Service(profile, svc, metrics, loc)
	apiV1Service.RegisterRoutes(echoServer)

	if err := svc.Load(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to load schedule")
	}
	return s, nil
}

// Start binds the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := (&net.ListenConfig{}).Listen(ctx, "tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.listener = listener
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("bebop server started", "address", address, "auth", s.Profile.IsAuthEnabled())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Shutdown stops accepting requests, waits for in-flight ones and saves
// pending edits.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	if err := s.Service.Close(ctx); err != nil {
		slog.Error("failed to save schedule on shutdown", "error", err)
	}

	slog.Info("bebop stopped properly")
}
