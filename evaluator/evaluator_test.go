package evaluator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/nuxtinfo/config"
	"github.com/use-agent/nuxtinfo/models"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// requireCode asserts err is a *models.ScrapeError carrying code.
func requireCode(t *testing.T, err error, code string) *models.ScrapeError {
	t.Helper()
	require.Error(t, err)
	var se *models.ScrapeError
	require.True(t, errors.As(err, &se), "expected *models.ScrapeError, got %T", err)
	require.Equal(t, code, se.Code)
	return se
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		want    string
	}{
		{"", "goja"},
		{config.EvaluatorGoja, "goja"},
		{config.EvaluatorNode, "node"},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.backend, func(t *testing.T) {
			ev, err := New(config.EvaluatorConfig{Backend: tt.backend, NodeBin: "node"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev.Name())
		})
	}

	_, err := New(config.EvaluatorConfig{Backend: "rhino"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rhino")
}

func TestCheckOutput(t *testing.T) {
	out, err := checkOutput([]byte("  {\"a\":1}\n"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(out))

	_, err = checkOutput(nil)
	requireCode(t, err, models.ErrCodeEvalOutput)

	_, err = checkOutput([]byte("undefined\n"))
	requireCode(t, err, models.ErrCodeEvalOutput)

	_, err = checkOutput([]byte("{not json"))
	requireCode(t, err, models.ErrCodeEvalOutput)
}
