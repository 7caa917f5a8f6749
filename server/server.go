package server

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hvila/tablero/internal/logger"
)

// Options configures the server
type Options struct {
	DatabaseURL string
	StorageDir  string // logo files live here, served under /files/
	PublicURL   string // external base URL used to build file links
}

// Server is the tablero backend
type Server struct {
	db   *sql.DB
	opts Options
	echo *echo.Echo
	feed *feedHub
}

// New creates a server and runs migrations
func New(opts Options) (*Server, error) {
	db, err := sql.Open("postgres", opts.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &Server{
		db:   db,
		opts: opts,
		feed: newFeedHub(),
	}

	if err := s.migrate(); err != nil {
		return nil, err
	}

	s.setupEcho()
	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	e.Use(requestLogMiddleware)
	e.Use(metricsMiddleware)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	if s.opts.StorageDir != "" {
		e.Static("/files", s.opts.StorageDir)
	}

	api := e.Group("/api/v1")

	// Auth endpoints (public)
	api.POST("/register", s.handleRegister)
	api.POST("/login", s.handleLogin)

	// Protected endpoints
	protected := api.Group("")
	protected.Use(s.authMiddleware)
	protected.GET("/me", s.handleMe)
	protected.POST("/logout", s.handleLogout)

	protected.GET("/workitems", s.handleListWorkItems)
	protected.POST("/workitems", s.handleCreateWorkItem)
	protected.PATCH("/workitems/:id", s.handleUpdateWorkItem)
	protected.DELETE("/workitems/:id", s.handleSoftDelete)
	protected.POST("/workitems/:id/restore", s.handleRestore)
	protected.POST("/workitems/:id/events", s.handleAppendStatusEvent)

	protected.GET("/status-events", s.handleListStatusEvents)
	protected.GET("/users", s.handleListUsers)

	protected.GET("/notifications", s.handleListNotifications)
	protected.POST("/notifications", s.handleEnqueueNotification)
	protected.POST("/notifications/:id/read", s.handleMarkNotificationRead)

	protected.POST("/logos", s.handleUploadLogo)
	protected.DELETE("/logos/:name", s.handleRemoveLogo)

	protected.GET("/events", s.handleChangeFeed)

	s.echo = e
}

// requestLogMiddleware logs every request through the shared logger
func requestLogMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		err := next(c)

		res := c.Response()
		logger.Info("HTTP request",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("duration", time.Since(start).String()))

		return err
	}
}

// Close closes the database connection
func (s *Server) Close() error {
	s.feed.close()
	return s.db.Close()
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start starts the server
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
