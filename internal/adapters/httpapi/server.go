// Package httpapi exposes the daemon's control surface over HTTP. It is a
// thin adapter: handlers only call store and manager operations and read
// the timer feed.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nap-labs/napguard/internal/cliconfig"
	"github.com/nap-labs/napguard/internal/services"
	"github.com/nap-labs/napguard/internal/state"
	"github.com/nap-labs/napguard/pkg/log"
)

const shutdownTimeout = 5 * time.Second

// Server serves the HTTP control surface.
type Server struct {
	store   *state.Store
	feed    *state.TimerFeed
	manager *services.Manager
	logger  log.Logger
	start   time.Time
	engine  *gin.Engine
}

// New builds the router.
func New(store *state.Store, feed *state.TimerFeed, manager *services.Manager, logger log.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		store:   store,
		feed:    feed,
		manager: manager,
		logger:  logger,
		start:   time.Now(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.POST("/coffee", s.setManual(true))
	engine.POST("/chill", s.setManual(false))
	engine.POST("/services/:name/on", s.serviceOn)
	engine.POST("/services/:name/off", s.serviceOff)
	engine.GET("/status", s.status)
	engine.GET("/health", s.health)
	engine.GET("/ws", s.timerStream)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.engine}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.logger.Info("http server started", log.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("http server shutdown failed", log.Err(err))
		}
		<-errCh
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

// setManual flips the manual keep-awake inhibitor.
func (s *Server) setManual(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap := s.store.SetInhibitor(cliconfig.ManualInhibitor, active)
		if active {
			c.JSON(http.StatusOK, activeResponse("keep-awake enabled", snap))
			return
		}
		c.JSON(http.StatusOK, inactiveResponse("keep-awake disabled", snap))
	}
}

func (s *Server) serviceOn(c *gin.Context) {
	name := c.Param("name")
	snap, err := s.manager.Enable(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrUnknownService) {
			c.JSON(http.StatusNotFound, errorResponse(err.Error(), state.Snapshot{}))
			return
		}
		// Recovery exhausted: the flag is already forced inactive and the
		// diagnostics are in the error log; report the state as-is.
		c.JSON(http.StatusOK, errorResponse(err.Error(), s.store.Snapshot()))
		return
	}
	c.JSON(http.StatusOK, activeResponse(name+" enabled and service started", snap))
}

func (s *Server) serviceOff(c *gin.Context) {
	name := c.Param("name")
	snap, err := s.manager.Disable(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrUnknownService) {
			c.JSON(http.StatusNotFound, errorResponse(err.Error(), state.Snapshot{}))
			return
		}
		c.JSON(http.StatusOK, errorResponse(err.Error(), s.store.Snapshot()))
		return
	}
	c.JSON(http.StatusOK, inactiveResponse(name+" disabled and service stopped", snap))
}

func (s *Server) status(c *gin.Context) {
	snap := s.store.Snapshot()
	timer := s.feed.Latest()
	last := s.store.LastAction()

	resp := StatusResponse{
		States:      snap,
		TimerActive: timer.Active,
		Uptime:      formatUptime(time.Since(s.start)),
	}
	if timer.Active {
		resp.TimerRemainingSeconds = &timer.RemainingSeconds
	}
	if last.Label != "" {
		resp.LastAction = last.Label
		t := last.Time
		resp.LastActionTime = &t
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
