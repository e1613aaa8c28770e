package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/use-agent/nuxtinfo/cleaner"
	"github.com/use-agent/nuxtinfo/config"
	"github.com/use-agent/nuxtinfo/engine"
	"github.com/use-agent/nuxtinfo/evaluator"
	"github.com/use-agent/nuxtinfo/models"
)

// Scraper runs the page → state pipeline. It holds no per-request state and
// is safe for concurrent use.
type Scraper struct {
	engine    engine.Engine
	evaluator evaluator.Evaluator
	fetchCfg  config.FetchConfig
}

// NewScraper wires a fetch engine and a JS evaluator into a Scraper.
func NewScraper(eng engine.Engine, ev evaluator.Evaluator, fetchCfg config.FetchConfig) *Scraper {
	return &Scraper{
		engine:    eng,
		evaluator: ev,
		fetchCfg:  fetchCfg,
	}
}

// EvaluatorName reports which JS backend is in use.
func (s *Scraper) EvaluatorName() string {
	return s.evaluator.Name()
}

// DoScrape is the top-level orchestrator. Every stage aborts the run on its
// first error; nothing is retried.
//
//  1. Prefix check   – reject foreign URLs before any network traffic
//  2. Fetch          – one GET with the Chrome fingerprint
//  3. Locate         – first <script> containing window.__NUXT__
//  4. Extract        – slice the IIFE expression
//  5. Evaluate       – JSON.stringify(expression) in the JS backend
//  6. Decode         – order-preserving JSON tree
//  7. Normalize      – leaving links, dedup, UTF-8 sanitation
func (s *Scraper) DoScrape(ctx context.Context, req *models.InfoRequest) (*ScrapeResult, error) {
	// ── 1. Prefix check ───────────────────────────────────────────────
	if !req.HasPrefix(s.fetchCfg.AllowedPrefix) {
		return nil, models.NewScrapeError(
			models.ErrCodeInvalidInput,
			fmt.Sprintf("invalid URL: must start with %s", s.fetchCfg.AllowedPrefix),
			nil,
		)
	}

	// ── 2. Fetch ──────────────────────────────────────────────────────
	fetchStart := time.Now()
	page, err := s.engine.Fetch(ctx, &engine.FetchRequest{
		URL:     req.URL,
		Timeout: s.fetchCfg.Timeout,
	})
	fetchMs := time.Since(fetchStart).Milliseconds()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeUpstream,
			fmt.Sprintf("request to target URL failed: %v", err),
			err,
		)
	}
	slog.Debug("page fetched",
		"url", req.URL,
		"engine", page.EngineName,
		"status", page.StatusCode,
		"bytes", len(page.HTML),
		"fetch_ms", fetchMs,
	)

	// ── 3-4. Locate + extract ─────────────────────────────────────────
	script, err := FindNuxtScript(page.HTML)
	if err != nil {
		return nil, err
	}
	expr, err := ExtractIIFE(script)
	if err != nil {
		return nil, err
	}

	// ── 5. Evaluate ───────────────────────────────────────────────────
	evalStart := time.Now()
	raw, err := s.evaluator.Evaluate(ctx, expr)
	evalMs := time.Since(evalStart).Milliseconds()
	if err != nil {
		return nil, err
	}
	slog.Debug("state evaluated",
		"url", req.URL,
		"evaluator", s.evaluator.Name(),
		"json_bytes", len(raw),
		"eval_ms", evalMs,
	)

	// ── 6. Decode ─────────────────────────────────────────────────────
	tree, err := cleaner.Decode(raw)
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeEvalOutput,
			"could not parse runtime output as JSON",
			err,
		)
	}

	// ── 7. Normalize ──────────────────────────────────────────────────
	data, err := cleaner.Normalize(tree)
	if err != nil {
		return nil, err
	}

	return &ScrapeResult{
		Data:       data,
		FinalURL:   page.FinalURL,
		FetchMs:    fetchMs,
		EvaluateMs: evalMs,
	}, nil
}
