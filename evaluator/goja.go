package evaluator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dop251/goja"
	"github.com/use-agent/nuxtinfo/models"
)

// Goja evaluates expressions in-process with the goja interpreter.
// A fresh runtime is created per call. goja exposes no require, console,
// filesystem or network, so the page's code cannot reach outside the VM.
type Goja struct {
	timeout time.Duration
}

// NewGoja creates a Goja evaluator. A zero timeout disables the deadline
// (the caller's context still applies).
func NewGoja(timeout time.Duration) *Goja {
	return &Goja{timeout: timeout}
}

func (g *Goja) Name() string { return "goja" }

func (g *Goja) Evaluate(ctx context.Context, expr string) ([]byte, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeEvaluation, "script evaluation aborted", err)
	}

	vm := goja.New()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	v, err := vm.RunString("JSON.stringify(" + expr + "\n)")
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, models.NewScrapeError(
				models.ErrCodeEvaluation,
				fmt.Sprintf("script evaluation interrupted: %v", interrupted.Value()),
				err,
			)
		}
		return nil, models.NewScrapeError(
			models.ErrCodeEvaluation,
			fmt.Sprintf("script evaluation failed: %v", err),
			err,
		)
	}

	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return checkOutput(nil)
	}
	return checkOutput([]byte(v.String()))
}
