// Package api exposes the ops surface of the pipeline: similarity search
// over the vector store, score listings and feedback intake.
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"opportunity-finder/internal/config"
	"opportunity-finder/internal/logger"
	"opportunity-finder/internal/queue"
	"opportunity-finder/internal/score"
	"opportunity-finder/internal/vectorstore"
	"opportunity-finder/models"
)

type searchRequest struct {
	Vector         []float32 `json:"vector" binding:"required"`
	Limit          int       `json:"limit"`
	ScoreThreshold *float64  `json:"score_threshold"`
}

type feedbackRequest struct {
	OpportunityID string  `json:"opportunity_id" binding:"required"`
	Outcome       float64 `json:"outcome"`
	Source        string  `json:"source"`
}

// Server bundles the HTTP handlers and their dependencies.
type Server struct {
	cfg    *config.Config
	store  vectorstore.Store
	scores *score.Store
	tasks  *asynq.Client
}

func NewServer(cfg *config.Config, store vectorstore.Store, scores *score.Store, tasks *asynq.Client) *Server {
	return &Server{cfg: cfg, store: store, scores: scores, tasks: tasks}
}

// Router builds the gin engine with CORS and tracing middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("opportunity-finder"))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = s.cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", s.health)

	v1 := router.Group("/v1")
	{
		v1.POST("/search", s.search)
		v1.GET("/collection", s.collection)
		v1.GET("/opportunities", s.topOpportunities)
		v1.POST("/feedback", s.submitFeedback)
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
}

func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_request",
			"message":    err.Error(),
		})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	results, err := s.store.SearchSimilar(c.Request.Context(), req.Vector, req.Limit, req.ScoreThreshold)
	if err != nil {
		logger.Error("Similarity search failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "search_failed",
			"message":    "Similarity search failed",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

func (s *Server) collection(c *gin.Context) {
	info, err := s.store.CollectionInfo(c.Request.Context())
	if err != nil {
		logger.Error("Collection info failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "collection_info_failed",
			"message":    "Could not read collection info",
		})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) topOpportunities(c *gin.Context) {
	limit := 20
	if s.scores == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error_code": "scores_unavailable",
			"message":    "Score store not configured",
		})
		return
	}

	scores, err := s.scores.TopScores(c.Request.Context(), limit)
	if err != nil {
		logger.Error("Top scores query failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "scores_failed",
			"message":    "Could not list opportunities",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"opportunities": scores, "count": len(scores)})
}

func (s *Server) submitFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_request",
			"message":    err.Error(),
		})
		return
	}
	if req.Outcome < 0 || req.Outcome > 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "invalid_outcome",
			"message":    "outcome must be in [0, 1]",
		})
		return
	}

	task, err := queue.NewOutcomeFeedbackTask(&models.OutcomeFeedback{
		OpportunityID: req.OpportunityID,
		Outcome:       req.Outcome,
		Source:        req.Source,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "task_create_failed",
			"message":    "Could not create feedback task",
		})
		return
	}

	if _, err := s.tasks.EnqueueContext(c.Request.Context(), task); err != nil {
		logger.Error("Feedback enqueue failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error_code": "enqueue_failed",
			"message":    "Could not enqueue feedback",
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
