package daemon

import (
	"collsync/internal/logger"
	"collsync/internal/model"
	"collsync/internal/repository"
	"collsync/internal/syncer"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server is the daemon control surface: the status, sync, history and
// stop CLI commands are HTTP clients of it.
type Server struct {
	echo   *echo.Echo
	engine *syncer.Engine
	repo   *repository.HistoryRepository
	port   int
	stopCh chan struct{}
}

func NewServer(engine *syncer.Engine, repo *repository.HistoryRepository, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:   e,
		engine: engine,
		repo:   repo,
		port:   port,
		stopCh: make(chan struct{}, 1),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.POST("/sync", s.handleSync)
	s.echo.GET("/history", s.handleHistory)
	s.echo.GET("/history/failed", s.handleFailedFiles)
	s.echo.POST("/stop", s.handleStop)
}

func (s *Server) Start() {
	go func() {
		addr := ":" + strconv.Itoa(s.port)
		logger.Log.Info("daemon server started",
			zap.String("addr", addr))

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("daemon server error", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) StopCh() <-chan struct{} {
	return s.stopCh
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server) handleSync(c echo.Context) error {
	s.engine.SyncNow()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "sync requested"})
}

type historyResponse struct {
	Stats  repository.Stats   `json:"stats"`
	Passes []model.PassRecord `json:"passes"`
}

func (s *Server) handleHistory(c echo.Context) error {
	n := 20
	if nStr := c.QueryParam("n"); nStr != "" {
		if parsed, err := strconv.Atoi(nStr); err == nil {
			n = parsed
		}
	}

	stats, err := s.repo.GetStats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	records, err := s.repo.GetRecent(n)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, historyResponse{Stats: stats, Passes: records})
}

func (s *Server) handleFailedFiles(c echo.Context) error {
	files, err := s.repo.GetFailedFiles()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, files)
}

func (s *Server) handleStop(c echo.Context) error {
	s.stopCh <- struct{}{}
	return c.JSON(http.StatusOK, map[string]string{"status": "stopping"})
}
