package httpserver

import (
	"time"

	"github.com/oeeez/artistly-platform/internal/core/ports"
	customMiddleware "github.com/oeeez/artistly-platform/internal/infrastructure/httpserver/middleware"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	TLSCertFile  string
	TLSKeyFile   string
}

type ServerDeps struct {
	Cache       ports.Cache
	RateLimiter ports.RateLimiter
	Sessions    ports.SessionStore
	Store       ports.KeyValueStore
}

type Server struct {
	echo       *echo.Echo
	config     *ServerConfig
	logger     *logrus.Logger
	cache      ports.Cache
	limiter    ports.RateLimiter
	sessions   ports.SessionStore
	store      ports.KeyValueStore
	middleware *customMiddleware.MiddlewareCollection
}

func NewServer(serverConfig *ServerConfig, adminJWTSecret string, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true

	server := &Server{
		echo:     e,
		config:   serverConfig,
		logger:   logger,
		cache:    deps.Cache,
		limiter:  deps.RateLimiter,
		sessions: deps.Sessions,
		store:    deps.Store,
		middleware: customMiddleware.NewMiddlewareCollection(
			deps.RateLimiter,
			logger,
			adminJWTSecret,
			GetRequestsTotal(),
			GetRequestDuration(),
		),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
