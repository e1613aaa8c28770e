package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/nuxtinfo/api/middleware"
	"github.com/use-agent/nuxtinfo/models"
	"github.com/use-agent/nuxtinfo/scraper"
)

// Info returns a handler for POST /mcpedl/info.
//
// Orchestration flow:
//  1. Parse & validate request.
//  2. Scraper.DoScrape → normalised Nuxt state.
//  3. Return the state as the 200 body.
func Info(sc *scraper.Scraper) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.InfoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Code:   models.ErrCodeInvalidInput,
				Detail: err.Error(),
			})
			return
		}
		req.Normalize()

		// ── 2. Scrape ───────────────────────────────────────────────
		result, err := sc.DoScrape(c.Request.Context(), &req)
		if err != nil {
			respondError(c, req.URL, err)
			return
		}

		slog.Info("page state extracted",
			"request_id", middleware.GetRequestID(c),
			"url", req.URL,
			"fetch_ms", result.FetchMs,
			"eval_ms", result.EvaluateMs,
			"total_ms", time.Since(totalStart).Milliseconds(),
		)

		// ── 3. Respond ──────────────────────────────────────────────
		c.JSON(http.StatusOK, result.Data)
	}
}

// respondError maps a ScrapeError to its HTTP status and writes the JSON
// error body. Errors of any other type become a generic 500.
func respondError(c *gin.Context, url string, err error) {
	var scrapeErr *models.ScrapeError
	if !errors.As(err, &scrapeErr) {
		scrapeErr = models.NewScrapeError(
			models.ErrCodeInternal,
			fmt.Sprintf("unexpected server error: %v", err),
			err,
		)
	}

	slog.Warn("page state extraction failed",
		"request_id", middleware.GetRequestID(c),
		"url", url,
		"code", scrapeErr.Code,
		"error", scrapeErr,
	)
	c.JSON(scrapeErr.Status(), scrapeErr.ToResponse())
}
