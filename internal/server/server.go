// Package server is the device-local HTTP server the shared browser talks to.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flarebyte/shiftlog/internal/export"
	"github.com/flarebyte/shiftlog/internal/form"
	"github.com/flarebyte/shiftlog/internal/hub"
	"github.com/flarebyte/shiftlog/internal/log"
	"github.com/flarebyte/shiftlog/internal/offline"
	"github.com/flarebyte/shiftlog/internal/reminder"
	"github.com/flarebyte/shiftlog/internal/store"
)

// Deps are the components served over HTTP. Cache may be nil, in which case
// unknown paths get 404 instead of being proxied.
type Deps struct {
	Store    *store.Store
	Exports  *export.Coordinator
	Admitter *form.Admitter
	Hub      *hub.Hub
	Clicks   *reminder.ClickHandler
	Cache    *offline.Cache
}

// Server holds the gin engine and its dependencies.
type Server struct {
	engine *gin.Engine
	deps   Deps
	addr   string
}

// New creates the device server listening on addr.
func New(d Deps, addr string) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{engine: engine, deps: d, addr: addr}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/profile", s.handleGetProfile)
	api.PUT("/profile", s.handlePutProfile)
	api.GET("/records/:category", s.handleListRecords)
	api.POST("/records/:category", s.handleAddRecord)
	api.GET("/summary", s.handleSummary)
	api.GET("/preview", s.handlePreview)
	api.GET("/export", s.handleExportAll)
	api.GET("/export/:category", s.handleExportCategory)
	api.POST("/clear", s.handleClear)
	api.POST("/notifications/click", s.handleClick)

	s.engine.GET("/ws", s.handleWebSocket)

	if s.deps.Cache != nil {
		s.engine.NoRoute(gin.WrapH(newProxy(s.deps.Cache)))
	}
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.GetLogger().WithField("addr", s.addr).Info("server listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	log.GetLogger().Info("server stopped")
	return err
}

func (s *Server) handleHealth(c *gin.Context) {
	body := gin.H{
		"status":      "ok",
		"subscribers": 0,
		"dropped":     int64(0),
		"cache":       false,
	}
	if s.deps.Hub != nil {
		body["subscribers"] = s.deps.Hub.Subscribers()
		body["dropped"] = s.deps.Hub.Dropped()
	}
	if s.deps.Cache != nil {
		body["cache"] = s.deps.Cache.Installed()
	}
	c.JSON(http.StatusOK, body)
}
