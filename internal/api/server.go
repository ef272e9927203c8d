package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Skufu/GlucoRisk/internal/features"
	"github.com/Skufu/GlucoRisk/internal/history"
	"github.com/Skufu/GlucoRisk/internal/input"
	"github.com/Skufu/GlucoRisk/internal/observability"
	"github.com/Skufu/GlucoRisk/internal/scoring"
)

// DefaultMaxBodyBytes caps request bodies when Options leaves it unset.
const DefaultMaxBodyBytes = 10 << 20

// HealthChecker is satisfied by *pgxpool.Pool.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Scorer turns a vector into a verdict.
type Scorer interface {
	Score(ctx context.Context, v features.Vector) (scoring.Verdict, error)
	Ready() bool
}

// HistoryLister reads the history back.
type HistoryLister interface {
	List(ctx context.Context) ([]history.Record, error)
}

// Options wires the server's collaborators. Scorer is required.
type Options struct {
	Scorer       Scorer
	History      history.Log
	Lister       HistoryLister
	Metrics      *observability.Metrics
	Logger       *slog.Logger
	DB           HealthChecker
	Extractor    input.TextExtractor
	MaxBodyBytes int64
	Now          func() time.Time
}

// Server holds the request handlers.
type Server struct {
	scorer    Scorer
	history   history.Log
	lister    HistoryLister
	metrics   *observability.Metrics
	logger    *slog.Logger
	db        HealthChecker
	extractor input.TextExtractor
	maxBody   int64
	now       func() time.Time
}

// NewServer fills in defaults for unset options.
func NewServer(opts Options) *Server {
	s := &Server{
		scorer:    opts.Scorer,
		history:   opts.History,
		lister:    opts.Lister,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		db:        opts.DB,
		extractor: opts.Extractor,
		maxBody:   opts.MaxBodyBytes,
		now:       opts.Now,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.extractor == nil {
		s.extractor = input.PDFTextExtractor{}
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts Options) *gin.Engine {
	return NewServer(opts).Router()
}

// Router registers the routes on a fresh engine.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.SetHTMLTemplate(loadTemplates())
	router.Use(
		observability.RequestLogger(s.logger),
		gin.Recovery(),
		limitBodySize(s.maxBody),
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}),
	)
	// Keep multipart parts within the body limit in memory.
	router.MaxMultipartMemory = s.maxBody

	router.GET("/", s.handleIndex)
	router.POST("/", s.handleFormSubmit)
	router.POST("/upload", s.handleFormUpload)

	v1 := router.Group("/api/v1")
	v1.POST("/predict", s.handlePredict)
	v1.POST("/predict/csv", s.handlePredictFile("csv"))
	v1.POST("/predict/pdf", s.handlePredictFile("pdf"))
	v1.POST("/report", s.handleReport)
	v1.GET("/history", s.handleHistory)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", s.handleReady)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	return router
}

func (s *Server) handleReady(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok", "resources": "ok", "db": "disabled"}

	if !s.scorer.Ready() {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["resources"] = "unavailable"
	}

	if s.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		body["db"] = "ok"
		if err := s.db.Ping(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["db"] = fmt.Sprintf("unhealthy: %v", err)
		}
	}

	c.JSON(status, body)
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
