// Package evaluator turns the JavaScript expression that builds a page's
// state blob into JSON text.
//
// Every backend honours the same narrow contract: expression in, the text of
// JSON.stringify(expression) out, bounded by a timeout, and a
// *models.ScrapeError on failure.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/use-agent/nuxtinfo/config"
	"github.com/use-agent/nuxtinfo/models"
)

// Evaluator evaluates a JavaScript expression and returns its JSON encoding.
type Evaluator interface {
	// Name returns the backend identifier ("goja", "node", "browser").
	Name() string

	// Evaluate runs expr and returns JSON.stringify(expr).
	Evaluate(ctx context.Context, expr string) ([]byte, error)
}

// New builds the backend selected by cfg.Backend.
// Callers should Close the result when it implements io.Closer.
func New(cfg config.EvaluatorConfig) (Evaluator, error) {
	switch cfg.Backend {
	case config.EvaluatorGoja, "":
		return NewGoja(cfg.Timeout), nil
	case config.EvaluatorNode:
		return NewNode(cfg.NodeBin, cfg.NodeArgs, cfg.Timeout), nil
	case config.EvaluatorBrowser:
		b, err := NewBrowser(cfg)
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		return nil, fmt.Errorf("evaluator: unknown backend %q", cfg.Backend)
	}
}

// checkOutput trims the runtime output and verifies it is a JSON document.
func checkOutput(out []byte) ([]byte, error) {
	trimmed := []byte(strings.TrimSpace(string(out)))
	if len(trimmed) == 0 || string(trimmed) == "undefined" {
		return nil, models.NewScrapeError(
			models.ErrCodeEvalOutput,
			"script evaluation produced no JSON output",
			nil,
		)
	}
	if !json.Valid(trimmed) {
		return nil, models.NewScrapeError(
			models.ErrCodeEvalOutput,
			"could not parse runtime output as JSON",
			nil,
		)
	}
	return trimmed, nil
}
