package evaluator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/use-agent/nuxtinfo/models"
)

// Node evaluates expressions by piping a wrapper script into a Node.js
// process and reading the JSON it prints.
type Node struct {
	bin     string
	args    []string
	timeout time.Duration
}

// NewNode creates a Node evaluator. bin is resolved on PATH at call time.
//
// Page scripts run with whatever rights args grant the process. Without a
// permission flag such as "--permission" they can read and write files,
// open sockets and spawn programs as the service user.
func NewNode(bin string, args []string, timeout time.Duration) *Node {
	if bin == "" {
		bin = "node"
	}
	return &Node{bin: bin, args: args, timeout: timeout}
}

func (n *Node) Name() string { return "node" }

// Script returns the program written to the runtime's stdin for expr.
func Script(expr string) string {
	return "console.log(JSON.stringify(" + expr + "\n))"
}

func (n *Node) Evaluate(ctx context.Context, expr string) ([]byte, error) {
	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, n.bin, n.args...)
	cmd.Stdin = strings.NewReader(Script(expr))
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	slog.Debug("node evaluation finished",
		"bin", n.bin,
		"duration_ms", time.Since(start).Milliseconds(),
		"stdout_bytes", stdout.Len(),
	)

	if err != nil {
		switch {
		case errors.Is(err, exec.ErrNotFound):
			return nil, models.NewScrapeError(
				models.ErrCodeRuntimeMissing,
				fmt.Sprintf("javascript runtime %q not found; install Node.js and add it to PATH", n.bin),
				err,
			)
		case ctx.Err() != nil:
			return nil, models.NewScrapeError(
				models.ErrCodeEvaluation,
				fmt.Sprintf("node script execution aborted: %v", ctx.Err()),
				err,
			)
		default:
			return nil, models.NewScrapeError(
				models.ErrCodeEvaluation,
				fmt.Sprintf("node script execution failed: %s", strings.TrimSpace(stderr.String())),
				err,
			)
		}
	}

	return checkOutput(stdout.Bytes())
}
