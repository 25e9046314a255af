// Package server exposes suggestions and gated execution over HTTP.
package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kamusis/nlcmd/internal/app"
	"github.com/kamusis/nlcmd/internal/gate"
	"github.com/kamusis/nlcmd/internal/logging"
	"github.com/kamusis/nlcmd/internal/retrieval"
	"github.com/kamusis/nlcmd/internal/sandbox"
)

const requestIDHeader = "X-Request-ID"

// Source yields the App serving the next request. Implementations may swap
// the App between requests; a request keeps the one it started with.
type Source interface {
	Current() *app.App
}

// Options configures the HTTP front end.
type Options struct {
	// AllowOrigins lists CORS origins; empty allows all.
	AllowOrigins      []string
	MaxConcurrentRuns int
}

// Server holds the gin engine and the execution semaphore.
type Server struct {
	src      Source
	log      zerolog.Logger
	runSlots chan struct{}
	engine   *gin.Engine
}

// New builds the router.
func New(src Source, opts Options, log zerolog.Logger) *Server {
	if opts.MaxConcurrentRuns <= 0 {
		opts.MaxConcurrentRuns = 4
	}
	s := &Server{
		src:      src,
		log:      logging.Component(log, "http"),
		runSlots: make(chan struct{}, opts.MaxConcurrentRuns),
	}

	r := gin.New()
	r.Use(s.recovery())
	r.Use(requestID())
	r.Use(s.accessLog())
	r.Use(cors.New(corsConfig(opts.AllowOrigins)))

	r.GET("/healthz", s.handleHealth)
	r.POST("/suggest", s.handleSuggest)
	r.POST("/run", s.handleRun)

	s.engine = r
	return s
}

// Handler returns the http.Handler to serve.
func (s *Server) Handler() http.Handler { return s.engine }

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	c.AllowHeaders = append(c.AllowHeaders, requestIDHeader)
	c.ExposeHeaders = []string{requestIDHeader}
	c.MaxAge = 12 * time.Hour
	return c
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info().
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, rec any) {
		s.log.Error().Interface("panic", rec).Str("path", c.Request.URL.Path).Msg("handler panicked")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}

type suggestRequest struct {
	Query    string   `json:"query"`
	K        int      `json:"k"`
	MinScore *float64 `json:"min_score"`
}

type suggestion struct {
	Command     string  `json:"command"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Score       float64 `json:"score"`
}

func (s *Server) handleSuggest(c *gin.Context) {
	var req suggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ex, err := s.src.Current().Suggest(c.Request.Context(), retrieval.Query{
		Text:     req.Query,
		K:        req.K,
		MinScore: req.MinScore,
	})
	if err != nil {
		var encErr *retrieval.EncodingError
		if errors.As(err, &encErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if c.Query("verbose") != "" {
		c.JSON(http.StatusOK, ex)
		return
	}
	out := make([]suggestion, 0, len(ex.Results))
	for _, r := range ex.Results {
		out = append(out, suggestion{
			Command:     r.Command,
			Description: r.Description,
			Category:    r.Category.String(),
			Score:       r.Score,
		})
	}
	c.JSON(http.StatusOK, out)
}

type runRequest struct {
	Command string `json:"command"`
}

func (s *Server) handleRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	a := s.src.Current()
	if err := a.Gate.Check(req.Command); err != nil {
		if errors.Is(err, gate.ErrCommandNotAllowed) {
			s.log.Warn().Str("request_id", c.GetString("request_id")).Str("command", req.Command).Msg("command rejected")
			c.JSON(http.StatusForbidden, gin.H{"error": "Command not allowed"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	select {
	case s.runSlots <- struct{}{}:
		defer func() { <-s.runSlots }()
	default:
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many commands running, retry later"})
		return
	}

	out, err := a.Runner.Run(c.Request.Context(), req.Command)
	body := gin.H{
		"stdout":      out.Stdout,
		"stderr":      out.Stderr,
		"exit_code":   out.ExitCode,
		"duration_ms": out.Duration.Milliseconds(),
	}
	switch {
	case errors.Is(err, sandbox.ErrTimeout):
		body["error"] = "command timed out"
		body["timeout"] = true
	case err != nil:
		body["error"] = err.Error()
	}
	if out.Truncated {
		body["truncated"] = true
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) handleHealth(c *gin.Context) {
	a := s.src.Current()
	st := a.Retrieval.Store()
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"model_id":  st.ModelID(),
		"records":   st.Len(),
		"dim":       st.Dim(),
		"gate_mode": string(a.Gate.Mode()),
	})
}
