package inspect

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/danmuck/am43ctl/internal/config"
	"github.com/danmuck/am43ctl/internal/observability"
	"github.com/danmuck/am43ctl/internal/protocol"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const version = "0.1.0"

// Server is the HTTP front of a Service.
type Server struct {
	cfg     config.ServerConfig
	svc     *Service
	router  *gin.Engine
	started time.Time
}

func NewServer(svc *Service, cfg config.ServerConfig) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Node))
	r.Use(cors.New(cors.Config{
		AllowOrigins: config.NormalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{cfg: cfg, svc: svc, router: r, started: time.Now()}
	s.registerRoutes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

type decodeBody struct {
	Hex string `json:"hex" binding:"required"`
}

type confirmBody struct {
	Hex     string `json:"hex" binding:"required"`
	Success *bool  `json:"success" binding:"required"`
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"service": s.cfg.Node,
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1")
	v1.GET("/types", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"routes": s.svc.Routes()})
	})

	v1.POST("/decode", func(c *gin.Context) {
		var body decodeBody
		if err := c.ShouldBindJSON(&body); err != nil {
			s.fail(c, err)
			return
		}
		report, err := s.svc.DecodeHex(body.Hex)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	})

	v1.POST("/encode", func(c *gin.Context) {
		var msg config.MessageSpec
		if err := c.ShouldBindJSON(&msg); err != nil {
			s.fail(c, err)
			return
		}
		if err := config.ValidateMessageSpec(msg); err != nil {
			s.fail(c, err)
			return
		}
		report, err := s.svc.Encode(msg)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	})

	v1.POST("/confirm", func(c *gin.Context) {
		var body confirmBody
		if err := c.ShouldBindJSON(&body); err != nil {
			s.fail(c, err)
			return
		}
		report, err := s.svc.Confirm(body.Hex, *body.Success)
		if err != nil {
			s.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	})
}

// fail maps codec errors to 422 and everything else to 400.
func (s *Server) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	status := http.StatusBadRequest
	body := gin.H{"error": err.Error()}
	var pe *protocol.Error
	if errors.As(err, &pe) {
		status = http.StatusUnprocessableEntity
		body["kind"] = pe.Kind.String()
		if pe.Field != "" {
			body["field"] = pe.Field
		}
		c.Set(observability.ErrorKindKey, pe.Kind.String())
	}
	c.JSON(status, body)
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("inspect listen %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts on ln until ctx is cancelled, then shuts down gracefully.
// The listener speaks HTTPS when the config names a cert and key.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", ln.Addr().String()).
			Str("node", s.cfg.Node).
			Bool("tls", s.cfg.TLSEnabled()).
			Msg("inspect server listening")
		if s.cfg.TLSEnabled() {
			errCh <- srv.ServeTLS(ln, s.cfg.TLSCert, s.cfg.TLSKey)
			return
		}
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info().Msg("inspect server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
