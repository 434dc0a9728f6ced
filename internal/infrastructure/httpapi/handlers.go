package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"NewsScanner/internal/domain"
	"NewsScanner/internal/ports"
	"NewsScanner/internal/usecase"
)

type handlers struct {
	pipeline   *usecase.Pipeline
	articles   ports.ArticleRepository
	runs       ports.RunLog
	cronSecret string
	logger     *slog.Logger
}

type crawlRequest struct {
	Source string `json:"source"`
}

// crawl triggers the pipeline for one source, or all configured sources
// when the body omits it. Partial failures still return the stats of the
// sources that completed.
func (h *handlers) crawl(c *gin.Context) {
	var req crawlRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request body"})
			return
		}
	}

	var (
		results []domain.CrawlStats
		err     error
	)

	if req.Source != "" {
		src := domain.Source(req.Source)
		if !h.pipeline.HasSource(src) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "unknown source: " + req.Source,
			})
			return
		}
		var stats domain.CrawlStats
		stats, err = h.pipeline.CrawlSource(c.Request.Context(), src)
		if err == nil {
			results = append(results, stats)
		}
	} else {
		results, err = h.pipeline.CrawlAll(c.Request.Context())
	}

	if err != nil {
		h.logger.Error("crawl request failed", "error", err)
		status := http.StatusInternalServerError
		if len(results) > 0 {
			// Some sources completed; report the partial outcome.
			status = http.StatusOK
		}
		c.JSON(status, gin.H{"success": false, "results": results, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "results": results})
}

func (h *handlers) listArticles(c *gin.Context) {
	filter := ports.ArticleFilter{
		Source: domain.Source(c.Query("source")),
		Status: domain.ArticleStatus(c.Query("status")),
	}
	if v := c.Query("minRelevance"); v != "" {
		minRelevance, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "minRelevance must be an integer"})
			return
		}
		filter.MinRelevance = minRelevance
	}
	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be an integer"})
			return
		}
		filter.Limit = limit
	}

	articles, err := h.articles.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("list articles failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"count":    len(articles),
		"articles": articles,
	})
}

type statusRequest struct {
	ArticleID string `json:"articleId"`
	Status    string `json:"status"`
}

func (h *handlers) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ArticleID == "" || req.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing articleId or status"})
		return
	}

	status := domain.ArticleStatus(req.Status)
	if !domain.ValidReviewStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error":   "invalid status, must be approved, rejected, or published",
		})
		return
	}

	if err := h.articles.UpdateStatus(c.Request.Context(), req.ArticleID, status); err != nil {
		h.logger.Error("status update failed", "article", req.ArticleID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "article " + req.Status})
}

func (h *handlers) listRuns(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "limit must be an integer"})
			return
		}
		limit = parsed
	}

	runs, err := h.runs.Recent(c.Request.Context(), domain.Source(c.Query("source")), limit)
	if err != nil {
		h.logger.Error("list runs failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(runs), "runs": runs})
}

// cron is the hook for an external scheduler. It requires the shared
// bearer secret and crawls every configured source.
func (h *handlers) cron(c *gin.Context) {
	if h.cronSecret == "" || c.GetHeader("Authorization") != "Bearer "+h.cronSecret {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}

	results, err := h.pipeline.CrawlAll(c.Request.Context())

	totalFound, totalSaved := 0, 0
	for _, stats := range results {
		totalFound += stats.ArticlesFound
		totalSaved += stats.ArticlesFiltered
	}

	response := gin.H{
		"success":   err == nil,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"results":   results,
		"summary": gin.H{
			"totalFound":    totalFound,
			"totalFiltered": totalSaved,
		},
	}

	if err != nil {
		h.logger.Error("cron crawl failed", "error", err)
		response["error"] = err.Error()
		status := http.StatusInternalServerError
		if len(results) > 0 {
			status = http.StatusOK
		}
		c.JSON(status, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
