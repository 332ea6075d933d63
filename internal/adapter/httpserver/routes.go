package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pscheid92/textpulse/internal/platform/correlation"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	if s.httpMetrics != nil {
		s.echo.Use(s.httpMetrics.Middleware())
	}
	s.echo.Use(ErrorHandlingMiddleware(s.httpMetrics))
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            63072000, // 2 years; only sent over HTTPS
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		ReferrerPolicy:        "no-referrer",
	}))
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  s.config.AllowedOrigins(),
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderContentType, s.config.IdentityHeader, correlation.Header},
		ExposeHeaders: []string{echo.HeaderContentDisposition, correlation.Header},
	}))
	s.echo.Use(middleware.BodyLimit(fmt.Sprintf("%dB", s.config.MaxUploadBytes)))

	s.registerHealthRoutes()
	if s.metricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.metricsHandler))
	}
	s.registerAPIRoutes()
}

func (s *Server) registerAPIRoutes() {
	protected := []echo.MiddlewareFunc{
		principalMiddleware(s.config.IdentityHeader),
		newRateLimiter(s.config.RateLimitRPS, s.config.RateLimitBurst),
	}

	api := s.echo.Group("/api")
	api.GET("/", s.handleRoot)

	api.POST("/score", s.handleScore, protected...)
	api.POST("/analyze/text", s.handleAnalyzeText, protected...)
	api.POST("/analyze/csv", s.handleAnalyzeCSV, protected...)

	api.GET("/sentiments", s.handleListSentiments, protected...)
	api.GET("/sentiments/stats", s.handleStats, protected...)
	api.GET("/sentiments/trends", s.handleTrends, protected...)
	api.GET("/sentiments/keywords", s.handleKeywords, protected...)
	api.DELETE("/sentiments/:id", s.handleDeleteSentiment, protected...)

	api.GET("/export/csv", s.handleExportCSV, protected...)
	api.POST("/export/archive", s.handleExportArchive, protected...)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if userID, ok := c.Get(userIDKey).(string); ok {
				attrs = append(attrs, "user_id", userID)
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
