package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mr1hm/disaster-scout/internal/models"
	"github.com/mr1hm/disaster-scout/internal/pipeline"
)

type Pipeline interface {
	Run(ctx context.Context, idea string) ([]models.CommentaryRecord, error)
}

type Handler struct {
	pipeline Pipeline
	debug    bool
}

// NewHandler serves p. In debug mode p is never called and may be nil.
func NewHandler(p Pipeline, debug bool) *Handler {
	return &Handler{
		pipeline: p,
		debug:    debug,
	}
}

type ideaRequest struct {
	Idea string `json:"idea"`
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/getdisasterDataFromIdea", h.getDisasterDataFromIdea)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) getDisasterDataFromIdea(c *gin.Context) {
	var records []models.CommentaryRecord

	if h.debug {
		records = pipeline.DebugRecords()
	} else {
		var req ideaRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "request body must be a json object with an idea field",
			})
			return
		}
		idea := strings.TrimSpace(req.Idea)
		if idea == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "idea is required",
			})
			return
		}

		var err error
		records, err = h.pipeline.Run(c.Request.Context(), idea)
		if err != nil {
			slog.Error("pipeline failed", "idea", idea, "error", err)
			c.JSON(statusFor(err), gin.H{
				"error": "failed to fetch disaster data",
			})
			return
		}
	}

	if c.Query("format") == "geojson" {
		c.Header("Content-Type", "application/geo+json")
		c.JSON(http.StatusOK, toGeoJSON(records))
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusFor(err error) int {
	var de *pipeline.DiscoveryError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &de):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
